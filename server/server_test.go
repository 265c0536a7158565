package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusStartsIdle(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	var status Status
	getJSON(t, ts.URL+"/api/status", &status)
	assert.Equal(t, "idle", status.State)
}

func TestHeightmapBeforeAnyRunIs404(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/heightmap.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegenerateRequiresPost(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/regenerate")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRegenerateRejectsBadJSON(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/regenerate", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegeneratePipeline(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp := postRegenerate(t, ts.URL, RegenerateRequest{
		Size: 33, Seed: 42, Erosion: "grid", Iterations: 3,
	})
	assert.Equal(t, http.StatusAccepted, resp)

	status := waitForState(t, ts.URL, "done")
	assert.Equal(t, 33, status.GridSize)
	assert.Empty(t, status.LastError)

	// The finished field is served as a decodable square PNG.
	img, err := http.Get(ts.URL + "/api/heightmap.png")
	require.NoError(t, err)
	defer img.Body.Close()
	require.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get("Content-Type"))

	decoded, err := png.Decode(img.Body)
	require.NoError(t, err)
	assert.Equal(t, 33, decoded.Bounds().Dx())
	assert.Equal(t, 33, decoded.Bounds().Dy())
}

func TestRegenerateUnknownErosionFails(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp := postRegenerate(t, ts.URL, RegenerateRequest{Size: 33, Erosion: "glacial"})
	assert.Equal(t, http.StatusAccepted, resp, "validation happens inside the run")

	status := waitForState(t, ts.URL, "failed")
	assert.Contains(t, status.LastError, "glacial")
}

func TestRegenerateDropletIntensity(t *testing.T) {
	ts := httptest.NewServer(New().Handler())
	defer ts.Close()

	resp := postRegenerate(t, ts.URL, RegenerateRequest{
		Size: 33, Seed: 7, Erosion: "droplet", Intensity: "light", Iterations: 500,
	})
	assert.Equal(t, http.StatusAccepted, resp)

	status := waitForState(t, ts.URL, "done")
	assert.Equal(t, 33, status.GridSize)
}

func postRegenerate(t *testing.T, base string, req RegenerateRequest) int {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(base+"/api/regenerate", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func waitForState(t *testing.T, base, want string) Status {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		var status Status
		getJSON(t, base+"/api/status", &status)
		if status.State == want {
			return status
		}
		if status.State == "failed" && want != "failed" {
			t.Fatalf("run failed: %s", status.LastError)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("run never reached state %q", want)
	return Status{}
}

func getJSON(t *testing.T, url string, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
