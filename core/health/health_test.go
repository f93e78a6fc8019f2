package health

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
)

func TestAliveRoutes(t *testing.T) {
	srv := New(coreconfig.HealthConfig{Listen: "127.0.0.1", Port: 10000})
	for _, path := range []string{"/", "/health"} {
		resp, err := srv.App().Test(httptest.NewRequest("GET", path, nil), -1)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != 200 {
			t.Fatalf("%s: status = %d", path, resp.StatusCode)
		}
		if string(body) != AliveText {
			t.Fatalf("%s: body = %q", path, body)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	srv := New(coreconfig.HealthConfig{Listen: "127.0.0.1", Port: 10000})
	resp, err := srv.App().Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("metrics body missing runtime collectors")
	}
}

func TestAddr(t *testing.T) {
	srv := New(coreconfig.HealthConfig{Listen: "0.0.0.0", Port: 8080})
	if srv.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", srv.Addr())
	}
}
