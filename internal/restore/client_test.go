package restore

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/muralmend/internal/annotation"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func TestDataURLRoundTrip(t *testing.T) {
	src := testImage(7, 5)
	src.Set(3, 2, color.RGBA{255, 0, 0, 255})
	url, err := EncodeDataURL(src)
	if err != nil {
		t.Fatalf("EncodeDataURL: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix %q", url[:30])
	}
	img, mime, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("mime = %q", mime)
	}
	if r, g, _, _ := img.At(3, 2).RGBA(); r>>8 != 255 || g != 0 {
		t.Fatalf("pixel lost in round trip")
	}
	if b := img.Bounds(); b.Dx() != 7 || b.Dy() != 5 {
		t.Fatalf("bounds %v", b)
	}
}

func TestDecodeDataURLErrors(t *testing.T) {
	for _, s := range []string{"data:image/png,abc", "data:image/png;base64,!!!", "aGVsbG8="} {
		if _, _, err := DecodeDataURL(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"progress": 40, "message": "Split image into 6 patches"}`))
	}))
	defer ts.Close()

	st, err := NewClient(ts.URL + "/").Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Progress != 40 || st.Message != "Split image into 6 patches" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestStatusHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()
	if _, err := NewClient(ts.URL).Status(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestProcessSuccess(t *testing.T) {
	result, err := EncodeDataURL(testImage(4, 3))
	if err != nil {
		t.Fatal(err)
	}
	var got ProcessRequest
	var gotID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ProcessResponse{Success: true, Result: result, Message: "ok", Time: 1.5})
	}))
	defer ts.Close()

	rects := []annotation.Rect{{X: 10, Y: 20, Width: 40, Height: 30}}
	res, err := NewClient(ts.URL).Process(context.Background(), testImage(8, 6), rects)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got.Rectangles) != 1 || got.Rectangles[0] != rects[0] {
		t.Fatalf("server saw rectangles %+v", got.Rectangles)
	}
	if !strings.HasPrefix(got.Image, "data:image/png;base64,") {
		t.Fatal("image not sent as data URL")
	}
	if gotID == "" || gotID != res.RequestID {
		t.Fatalf("request id %q vs %q", gotID, res.RequestID)
	}
	if res.Elapsed.Seconds() != 1.5 || res.Message != "ok" {
		t.Fatalf("unexpected result %+v", res)
	}
	if b := res.Image.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("result bounds %v", b)
	}
}

func TestProcessWireFormat(t *testing.T) {
	var raw map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"success": false, "message": "nope"}`))
	}))
	defer ts.Close()
	NewClient(ts.URL).Process(context.Background(), testImage(2, 2), []annotation.Rect{{X: 1, Y: 2, Width: 3, Height: 4}})
	rects, ok := raw["rectangles"].([]any)
	if !ok || len(rects) != 1 {
		t.Fatalf("rectangles = %#v", raw["rectangles"])
	}
	r := rects[0].(map[string]any)
	for _, k := range []string{"x", "y", "width", "height"} {
		if _, ok := r[k]; !ok {
			t.Fatalf("missing key %q in %v", k, r)
		}
	}
}

func TestProcessFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		message string
	}{
		{
			name: "success false",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": false, "message": "model crashed"}`))
			},
			status:  200,
			message: "model crashed",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "internal", http.StatusInternalServerError)
			},
			status:  500,
			message: "internal",
		},
		{
			name: "bad result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": true, "result": "data:image/png;base64,AAAA"}`))
			},
			status:  200,
			message: "decode result",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()
			_, err := NewClient(ts.URL).Process(context.Background(), testImage(2, 2), nil)
			var pe *ProcessError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ProcessError, got %v", err)
			}
			if pe.Status != tt.status || pe.Message != tt.message {
				t.Fatalf("got status %d message %q", pe.Status, pe.Message)
			}
		})
	}
}

func TestProcessTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	_, err := NewClient(url).Process(context.Background(), testImage(2, 2), nil)
	if !IsProcessError(err) {
		t.Fatalf("expected ProcessError, got %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Fatal("transport cause not wrapped")
	}
}
