// Command wilderness-server runs the HTTP control plane for triggering
// terrain regeneration and streaming progress over websockets.
package main

import (
	"flag"
	"log"

	"github.com/habib256/wilderness/server"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	srv := server.New()
	if err := srv.ListenAndServe(*addr); err != nil {
		log.Fatalf("wilderness-server: %v", err)
	}
}
