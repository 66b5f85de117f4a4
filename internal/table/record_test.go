package table

import "testing"

func Test_EncodeDecodeHeader_RoundTrip(t *testing.T) {
	t.Parallel()

	want := Record{NextOff: 123456, KeyLen: 3, DataLen: 9000}
	buf := encodeHeader(want)
	got := decodeHeader(buf[:])

	if got != want {
		t.Fatalf("decodeHeader(encodeHeader(%+v)) = %+v", want, got)
	}
}

func Test_Record_Capacity(t *testing.T) {
	t.Parallel()

	r := Record{KeyLen: 3, DataLen: 5}
	if got := r.Capacity(); got != 8 {
		t.Fatalf("Capacity() = %d, want 8", got)
	}
}

func FuzzEncodeDecodeHeader(f *testing.F) {
	f.Add(uint32(0), uint32(0), uint32(0))
	f.Add(uint32(1), uint32(2), uint32(3))
	f.Add(^uint32(0), ^uint32(0), ^uint32(0))

	f.Fuzz(func(t *testing.T, next, keyLen, dataLen uint32) {
		want := Record{NextOff: next, KeyLen: keyLen, DataLen: dataLen}
		buf := encodeHeader(want)
		got := decodeHeader(buf[:])
		if got != want {
			t.Fatalf("round trip: got %+v, want %+v", got, want)
		}
	})
}
