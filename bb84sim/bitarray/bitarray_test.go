package bitarray

import (
	"math/rand"
	"testing"
)

func mustFromString(t *testing.T, s string) Dense {
	t.Helper()
	d, err := FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return d
}

func TestNewDense(t *testing.T) {
	tcs := []struct {
		name     string
		data     []byte
		bitLen   int
		wantSize int
		wantOnes int
	}{{
		name:     "inferred length",
		data:     []byte{0x01, 0x80},
		bitLen:   -1,
		wantSize: 16,
		wantOnes: 2,
	}, {
		name:     "truncating clip",
		data:     []byte{0xff},
		bitLen:   4,
		wantSize: 4,
		wantOnes: 4,
	}, {
		name:     "zero extension",
		data:     nil,
		bitLen:   10,
		wantSize: 10,
		wantOnes: 0,
	}, {
		name:     "empty",
		data:     nil,
		bitLen:   0,
		wantSize: 0,
		wantOnes: 0,
	}}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDense(tc.data, tc.bitLen)
			if d.Size() != tc.wantSize {
				t.Errorf("Size() == %d, want %d", d.Size(), tc.wantSize)
			}
			if d.CountOnes() != tc.wantOnes {
				t.Errorf("CountOnes() == %d, want %d", d.CountOnes(), tc.wantOnes)
			}
		})
	}
}

func TestGet(t *testing.T) {
	d := NewDense([]byte{0x96}, 8) // 01101001, bit 0 first
	want := []bool{false, true, true, false, true, false, false, true}
	for i, w := range want {
		if d.Get(i) != w {
			t.Errorf("Get(%d) == %v, want %v", i, d.Get(i), w)
		}
	}
	if d.Get(100) {
		t.Error("Get past the end should read zero")
	}
}

func TestFromStringRoundTrip(t *testing.T) {
	tcs := []string{"", "1", "0110", "10110100", "1011010010110100110"}
	for _, s := range tcs {
		if got := mustFromString(t, s).String(); got != s {
			t.Errorf("FromString(%q).String() == %q", s, got)
		}
	}
	if mustFromString(t, "10 11").String() != "1011" {
		t.Error("FromString should ignore spaces")
	}
	if _, err := FromString("10x1"); err == nil {
		t.Error("FromString should reject non-bit characters")
	}
}

func TestOps(t *testing.T) {
	tcs := []struct {
		name string
		a, b string
		op   func(a, b Dense) Dense
		want string
	}{{
		name: "and equal lengths",
		a:    "1011", b: "1101",
		op:   Dense.And,
		want: "1001",
	}, {
		name: "and truncates to shorter",
		a:    "1011", b: "11",
		op:   Dense.And,
		want: "10",
	}, {
		name: "xor equal lengths",
		a:    "1010", b: "1001",
		op:   Dense.XOr,
		want: "0011",
	}, {
		name: "xor extends shorter with zeros",
		a:    "101", b: "10011",
		op:   Dense.XOr,
		want: "00111",
	}, {
		name: "xnor equal lengths",
		a:    "1010", b: "1001",
		op:   Dense.XNor,
		want: "1100",
	}, {
		name: "xnor extends shorter with zeros",
		a:    "101", b: "10011",
		op:   Dense.XNor,
		want: "11000",
	}}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.op(mustFromString(t, tc.a), mustFromString(t, tc.b))
			if got.String() != tc.want {
				t.Errorf("got %q, want %q", got.String(), tc.want)
			}
		})
	}
}

func TestParity(t *testing.T) {
	tcs := []struct {
		bits string
		want bool
	}{
		{"", false},
		{"1011", true},
		{"1010", false},
		{"10110100", false},
		{"10110101", true},
	}
	for _, tc := range tcs {
		if got := mustFromString(t, tc.bits).Parity(); got != tc.want {
			t.Errorf("Parity(%q) == %v, want %v", tc.bits, got, tc.want)
		}
	}
}

func TestSelect(t *testing.T) {
	data := mustFromString(t, "10110100")
	mask := mustFromString(t, "11001010")
	if got := data.Select(mask).String(); got != "1000" {
		t.Errorf("Select == %q, want %q", got, "1000")
	}
}

func TestSlice(t *testing.T) {
	d := mustFromString(t, "10110100")
	got, err := d.Slice(2, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "1101" {
		t.Errorf("Slice(2, 6) == %q, want %q", got.String(), "1101")
	}
	for _, bounds := range [][2]int{{-1, 2}, {3, 2}, {0, 9}} {
		if _, err := d.Slice(bounds[0], bounds[1]); err == nil {
			t.Errorf("Slice(%d, %d) should error", bounds[0], bounds[1])
		}
	}
}

func TestAppendAndFlip(t *testing.T) {
	var d Dense
	for _, b := range []bool{true, false, true} {
		d.AppendBit(b)
	}
	if d.String() != "101" {
		t.Fatalf("appended %q, want %q", d.String(), "101")
	}
	d.Flip(0)
	d.Flip(2)
	if d.String() != "000" {
		t.Errorf("after flips got %q, want %q", d.String(), "000")
	}
}

func TestShufflePreservesContents(t *testing.T) {
	d := NewDense([]byte{0xde, 0xad, 0xbe}, 23)
	size, ones := d.Size(), d.CountOnes()
	d.Shuffle(rand.New(rand.NewSource(7)))
	if d.Size() != size {
		t.Errorf("Shuffle changed size: %d != %d", d.Size(), size)
	}
	if d.CountOnes() != ones {
		t.Errorf("Shuffle changed population: %d != %d", d.CountOnes(), ones)
	}
}

func TestEqual(t *testing.T) {
	a := mustFromString(t, "10110")
	if !a.Equal(mustFromString(t, "10110")) {
		t.Error("identical arrays should be Equal")
	}
	if a.Equal(mustFromString(t, "10111")) {
		t.Error("arrays differing in content should not be Equal")
	}
	if a.Equal(mustFromString(t, "1011")) {
		t.Error("arrays differing in length should not be Equal")
	}
}
