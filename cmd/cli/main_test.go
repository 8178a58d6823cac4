package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hamed0406/portwatch/internal/domain"
)

func TestFetchStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"uri":"tcp://a:1","up":true},{"uri":"tcp://b:2","up":false}]`))
	}))
	defer ts.Close()

	got, err := fetchStatus(context.Background(), ts.Client(), ts.URL+"/")
	if err != nil {
		t.Fatalf("fetchStatus: %v", err)
	}
	want := []domain.StatusEntry{{URI: "tcp://a:1", Up: true}, {URI: "tcp://b:2", Up: false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchStatus_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	if _, err := fetchStatus(context.Background(), ts.Client(), ts.URL); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	if err := printStatus(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no targets probed yet") {
		t.Fatalf("unexpected empty output %q", buf.String())
	}

	buf.Reset()
	err := printStatus(&buf, []domain.StatusEntry{{URI: "tcp://a:1", Up: true}, {URI: "tcp://b:2"}})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "UP") || !strings.HasSuffix(lines[1], "tcp://a:1") {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "DOWN") || !strings.HasSuffix(lines[2], "tcp://b:2") {
		t.Fatalf("row 2 = %q", lines[2])
	}
}

func TestRunProbe_Up(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	var buf bytes.Buffer
	if err := runProbe(context.Background(), &buf, "tcp://"+ln.Addr().String(), time.Second, nil); err != nil {
		t.Fatalf("runProbe: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "UP") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRunProbe_DownIPLiteral(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	var buf bytes.Buffer
	if err := runProbe(context.Background(), &buf, "tcp://"+addr, time.Second, nil); err == nil {
		t.Fatal("expected error for closed port")
	}
	out := buf.String()
	if !strings.HasPrefix(out, "DOWN") || !strings.Contains(out, "IP_LITERAL") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunProbe_Malformed(t *testing.T) {
	var buf bytes.Buffer
	if err := runProbe(context.Background(), &buf, "tcp://nohost", time.Second, nil); err == nil {
		t.Fatal("expected parse error")
	}
	if buf.Len() != 0 {
		t.Fatalf("malformed target must not be probed, got %q", buf.String())
	}
}
