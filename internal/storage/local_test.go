package storage

import (
	"bytes"
	"io"
	"testing"
)

func TestLocalStorage_PutOpenDelete(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	n, err := s.Put("pictures/abc.jpg", bytes.NewReader([]byte("jpeg bytes")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len("jpeg bytes")) {
		t.Errorf("n = %d", n)
	}

	ok, err := s.Exists("pictures/abc.jpg")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	obj, err := s.Open("pictures/abc.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(obj)
	obj.Close()
	if err != nil || string(data) != "jpeg bytes" {
		t.Fatalf("read = %q, %v", data, err)
	}

	if err := s.Delete("pictures/abc.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, err = s.Exists("pictures/abc.jpg")
	if err != nil || ok {
		t.Fatalf("Exists after delete = %v, %v", ok, err)
	}
}

func TestLocalStorage_OpenMissing(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	if _, err := s.Open("nope.jpg"); err == nil {
		t.Fatal("expected error for missing object")
	}
}
