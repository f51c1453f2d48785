package stream

import (
	"bytes"
	"encoding/binary"
	"net"
	"sync"
	"testing"

	"github.com/esphomeapi/client/wire"
)

func TestWriterWriteMessage(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	w := NewWriter(clientConn, wire.PlainCodec{})

	payload := []byte{0x00, 0x07, 0x00, 0x02, 'h', 'i'}

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 0, 64)
		tmp := make([]byte, 64)
		for {
			n, err := serverConn.Read(tmp)
			if n > 0 {
				buf = append(buf, tmp[:n]...)
			}
			if err != nil {
				break
			}
			if len(buf) >= 3 {
				break
			}
		}
		readDone <- buf
	}()

	if err := w.WriteMessage(payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got := <-readDone
	want, _ := wire.PlainCodec{}.Encode(payload)
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

// TestWriterClonesShareLock verifies two clones writing concurrently never
// interleave frames: each frame arrives whole, back to back, on the wire.
func TestWriterClonesShareLock(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	w := NewWriter(clientConn, wire.PlainCodec{})
	clone := w.Clone()

	const frames = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < frames; i++ {
			payload := make([]byte, 4)
			binary.BigEndian.PutUint16(payload[0:2], 1)
			_ = w.WriteMessage(payload)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < frames; i++ {
			payload := make([]byte, 4)
			binary.BigEndian.PutUint16(payload[0:2], 2)
			_ = clone.WriteMessage(payload)
		}
	}()

	received := make(chan int, 1)
	go func() {
		codec := wire.PlainCodec{}
		buf := make([]byte, 0, 4096)
		tmp := make([]byte, 4096)
		count := 0
		for count < frames*2 {
			n, err := serverConn.Read(tmp)
			if n > 0 {
				buf = append(buf, tmp[:n]...)
			}
			for {
				_, ok, decErr := codec.Decode(&buf)
				if decErr != nil || !ok {
					break
				}
				count++
			}
			if err != nil {
				break
			}
		}
		received <- count
	}()

	wg.Wait()
	n := <-received
	if n != frames*2 {
		t.Fatalf("got %d well-formed frames, want %d", n, frames*2)
	}
}
