package table

import "testing"

func Test_Hash_KnownVectors(t *testing.T) {
	t.Parallel()

	// FNV-1a 32-bit offset basis with no input bytes consumed.
	if got := Hash(nil); got != 2166136261 {
		t.Fatalf("Hash(nil) = %d, want 2166136261", got)
	}

	if got, want := Hash([]byte("a")), hashReference([]byte("a")); got != want {
		t.Fatalf("Hash(%q) = %d, want %d", "a", got, want)
	}
}

func Test_Hash_AgreesWithReference(t *testing.T) {
	t.Parallel()

	for _, key := range [][]byte{
		[]byte(""),
		[]byte("dog"),
		[]byte("cat"),
		[]byte("a-somewhat-longer-key-with-several-words-in-it"),
		{0x00, 0xff, 0x10, 0x20},
	} {
		if got, want := Hash(key), hashReference(key); got != want {
			t.Errorf("Hash(%q) = %d, want %d (reference)", key, got, want)
		}
	}
}

func FuzzHash_AgreesWithReference(f *testing.F) {
	f.Add([]byte("dog"))
	f.Add([]byte(""))
	f.Add([]byte{0x00, 0xff})

	f.Fuzz(func(t *testing.T, key []byte) {
		if got, want := Hash(key), hashReference(key); got != want {
			t.Fatalf("Hash(%x) = %d, want %d (reference)", key, got, want)
		}
	})
}
