package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDestination(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	dest := NewFileDestination(dir)

	if err := dest.Write(context.Background(), "mx-1/matrix.yaml", []byte("one")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := dest.Write(context.Background(), "mx-1/matrix.yaml", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "mx-1", "matrix.yaml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("content = %q, want two", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "mx-1", "matrix.yaml.tmp")); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestS3Destination_Key(t *testing.T) {
	for _, tc := range []struct {
		prefix, name, want string
	}{
		{"", "mx-1/matrix.yaml", "mx-1/matrix.yaml"},
		{"exports", "mx-1/matrix.yaml", "exports/mx-1/matrix.yaml"},
		{"exports/", "matrix.yaml", "exports/matrix.yaml"},
	} {
		d := &S3Destination{prefix: tc.prefix}
		if got := d.Key(tc.name); got != tc.want {
			t.Errorf("Key(%q) with prefix %q = %q, want %q", tc.name, tc.prefix, got, tc.want)
		}
	}
}
