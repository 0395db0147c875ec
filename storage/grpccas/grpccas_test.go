package grpccas

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/canonval/document"
	"xdao.co/canonval/storage"
	"xdao.co/canonval/storage/localfs"
	"xdao.co/canonval/storage/memcas"
	"xdao.co/canonval/value"
)

func newBufconnClient(t *testing.T, cas storage.CAS) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterCASServer(srv, &Server{CAS: cas})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return &Client{cc: cc, client: NewCASClient(cc), Timeout: 2 * time.Second}
}

func TestGRPCCAS_LocalFS_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cas, err := localfs.New(dir)
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	client := newBufconnClient(t, cas)

	payload := []byte("hello grpccas")
	id, err := client.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("expected defined CID")
	}
	if !client.Has(id) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestGRPCCAS_DocumentBytes(t *testing.T) {
	client := newBufconnClient(t, memcas.New())

	d := document.New("profile")
	d.Data.Set("displayName", value.NewString("alice"))
	d.Data.Set("rank", value.NewInteger(3))
	b, err := d.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	wantCID, err := d.CID()
	if err != nil {
		t.Fatalf("CID: %v", err)
	}

	id, err := client.Put(b)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if id.String() != wantCID {
		t.Fatalf("stored CID %s does not match document CID %s", id, wantCID)
	}

	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	decoded, err := document.FromBytes(got)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !decoded.Equal(d) {
		t.Fatalf("document did not survive the CAS round trip")
	}
}
