package codec

import "testing"

func benchmarkMarshal(b *testing.B, c Codec) {
	b.Helper()
	b.ReportAllocs()

	v := sampleEvent()
	b.SetBytes(int64(len(MustMarshal(c, v))))
	for b.Loop() {
		if _, err := c.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkUnmarshal(b *testing.B, c Codec) {
	b.Helper()
	b.ReportAllocs()

	data := MustMarshal(c, sampleEvent())
	b.SetBytes(int64(len(data)))

	var out event
	for b.Loop() {
		if err := c.Unmarshal(data, &out); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshal(b *testing.B) {
	for _, name := range Names() {
		c, _ := ByName(name)
		b.Run(name, func(b *testing.B) { benchmarkMarshal(b, c) })
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	for _, name := range Names() {
		c, _ := ByName(name)
		b.Run(name, func(b *testing.B) { benchmarkUnmarshal(b, c) })
	}
}
