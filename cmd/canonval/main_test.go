package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/canonval/document"
	"xdao.co/canonval/value"
)

func TestRun_CASExportImport(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	bundlePath := filepath.Join(t.TempDir(), "docs.tar")

	d := document.New("note")
	d.Data.Set("body", value.NewString("cli round trip"))
	data, err := d.ToBytes()
	if err != nil {
		t.Fatal(err)
	}
	docPath := filepath.Join(t.TempDir(), "doc.bin")
	if err := os.WriteFile(docPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	if code := run([]string{"cas", "put", "--backend", "localfs", "--localfs-dir", srcDir, docPath}, &out, &errOut); code != 0 {
		t.Fatalf("cas put exited %d: %s", code, errOut.String())
	}
	cidStr := strings.TrimSpace(out.String())
	if cidStr == "" {
		t.Fatal("cas put printed no CID")
	}

	out.Reset()
	errOut.Reset()
	if code := run([]string{"cas", "export", "--backend", "localfs", "--localfs-dir", srcDir, "--out", bundlePath, cidStr}, &out, &errOut); code != 0 {
		t.Fatalf("cas export exited %d: %s", code, errOut.String())
	}

	out.Reset()
	errOut.Reset()
	if code := run([]string{"cas", "import", "--backend", "localfs", "--localfs-dir", dstDir, bundlePath}, &out, &errOut); code != 0 {
		t.Fatalf("cas import exited %d: %s", code, errOut.String())
	}

	out.Reset()
	errOut.Reset()
	if code := run([]string{"cas", "get", "--backend", "localfs", "--localfs-dir", dstDir, cidStr}, &out, &errOut); code != 0 {
		t.Fatalf("cas get exited %d: %s", code, errOut.String())
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatal("imported bytes differ from the original document")
	}
}
