package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matt-g-everett/puppetx/metrics"
	"github.com/matt-g-everett/puppetx/motion"
	"github.com/matt-g-everett/puppetx/stream"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullSink struct {
	frames int
}

func (s *nullSink) SendFrame(string, stream.Frame) error {
	s.frames++
	return nil
}

func (s *nullSink) SendEvent(stream.ClipEvent) error { return nil }

type fixture struct {
	api   *Api
	sched *stream.ManualScheduler
	sink  *nullSink
	ctrl  *stream.Controller
	srv   http.Handler
}

func newFixture(t *testing.T, staticDir string) *fixture {
	t.Helper()
	sched := stream.NewManualScheduler(time.Unix(0, 0))
	player := stream.NewPlayer(sched, zerolog.Nop())
	sink := new(nullSink)
	m := metrics.New()
	ctrl := stream.NewController(player, sink, 0, m, zerolog.Nop())
	a := NewApi(ctrl, m, zerolog.Nop(), staticDir)
	return &fixture{api: a, sched: sched, sink: sink, ctrl: ctrl, srv: a.Router()}
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func squareBody(id string) map[string]interface{} {
	return map[string]interface{}{
		"id": id,
		"landmarks": []motion.Point{
			{X: 0.4, Y: 0.4}, {X: 0.6, Y: 0.4}, {X: 0.6, Y: 0.6}, {X: 0.4, Y: 0.6},
		},
		"durationMs": 1000,
		"intensity":  1.0,
	}
}

func TestGetCatalog(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodGet, "/catalog", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var presets []motion.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	assert.Equal(t, motion.Catalog, presets)
}

func TestPostSequence(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodPost, "/sequences/face", squareBody(motion.Sad))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var seq stream.Sequence
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seq))
	assert.Len(t, seq.Frames, 8)
	assert.Equal(t, motion.Sad, seq.Kind)
	assert.Equal(t, stream.TargetFPS, seq.FPS)
	for i, frame := range seq.Frames {
		assert.EqualValues(t, i*125, frame.TimestampMs)
	}
}

func TestPostSequence_Errors(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPost, "/sequences/face", `{"id":"happy","landmarks":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no landmarks")

	rec = f.do(http.MethodPost, "/sequences/tail", squareBody("wag"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/sequences/body", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := squareBody(motion.Happy)
	body["durationMs"] = int64(1) << 62
	rec = f.do(http.MethodPost, "/sequences/face", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "request too large")

	rec = f.do(http.MethodPost, "/playback", map[string]interface{}{
		"target":     "face",
		"id":         "happy",
		"durationMs": 100000000000,
		"landmarks":  []motion.Point{{X: 0.5, Y: 0.5}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "", f.ctrl.Status().ClipID)
}

func TestPostPreview(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodPost, "/sequences/body/preview.png?cell=32&columns=4", squareBody(motion.Jump))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	rec = f.do(http.MethodPost, "/sequences/body/preview.png?cell=big", squareBody(motion.Jump))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodPost, "/sequences/body/preview.png?cell=4", squareBody(motion.Jump))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 9s at 8fps is 72 frames.
	long := squareBody(motion.Jump)
	long["durationMs"] = 9000
	rec = f.do(http.MethodPost, "/sequences/body/preview.png?cell=512", long)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "64 frames")
}

func TestPlayback(t *testing.T) {
	f := newFixture(t, "")

	body := squareBody(motion.Jump)
	body["target"] = "body"
	rec := f.do(http.MethodPost, "/playback", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.NotEmpty(t, accepted["clipId"])

	var status stream.ControllerStatus
	rec = f.do(http.MethodGet, "/playback/status", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, accepted["clipId"], status.ClipID)
	assert.True(t, status.Player.IsPlaying)
	assert.Equal(t, 8, status.Player.TotalFrames)

	f.sched.Advance(stream.FrameDuration)
	rec = f.do(http.MethodPost, "/playback/pause", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "paused", status.Player.State)

	rec = f.do(http.MethodPost, "/playback/pause", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Player.IsPlaying)

	f.sched.Drain(16*time.Millisecond, 1000)
	assert.Equal(t, 8, f.sink.frames)

	rec = f.do(http.MethodGet, "/playback/status", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Empty(t, status.ClipID)
	assert.Equal(t, 1.0, status.Player.Progress)
}

func TestPlayback_StopAndSkip(t *testing.T) {
	f := newFixture(t, "")
	body := squareBody(motion.Happy)
	body["target"] = "face"

	require.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/playback", body).Code)
	require.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/playback", body).Code)

	var status stream.ControllerStatus
	rec := f.do(http.MethodPost, "/playback/skip", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 0, status.QueueDepth)
	assert.NotEmpty(t, status.ClipID)

	rec = f.do(http.MethodPost, "/playback/stop", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Empty(t, status.ClipID)
	assert.Equal(t, "stopped", status.Player.State)
}

func TestPlayback_Closed(t *testing.T) {
	f := newFixture(t, "")
	f.ctrl.Close()

	body := squareBody(motion.Happy)
	body["target"] = "face"
	rec := f.do(http.MethodPost, "/playback", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(http.MethodPost, "/playback", squareBody(motion.Happy))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "")
	f.do(http.MethodPost, "/sequences/face", squareBody(motion.Happy))
	f.do(http.MethodPost, "/sequences/face", `{}`)

	rec := f.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.True(t, strings.Contains(out, `puppetx_sequences_generated_total{target="face"} 1`))
	assert.True(t, strings.Contains(out, "puppetx_errors_total 1"))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>rig</h1>"), 0644))

	f := newFixture(t, dir)
	rec := f.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rig")
}
