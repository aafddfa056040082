package codec_test

import (
	"fmt"

	"github.com/ssargent/nexkit/pkg/codec"
)

// ExampleEncoder writes the first fields of a variable header and reads them back
func ExampleEncoder() {
	enc := codec.NewEncoder(76)
	enc.Int32(int32(codec.VarNeuron))
	enc.Int32(102)
	enc.String("sig001a", 64)
	enc.Int32(3)

	dec := codec.NewDecoder(enc.Bytes())
	fmt.Println(dec.Int32(), dec.Int32())
	fmt.Println(dec.String(64))
	fmt.Println(dec.Int32(), dec.Err())

	// Output:
	// 0 102
	// sig001a
	// 3 <nil>
}

// ExampleDecoder_truncated shows that the first out-of-range read sticks
func ExampleDecoder_truncated() {
	dec := codec.NewDecoder([]byte{1, 0, 0, 0})
	fmt.Println(dec.Int32())
	fmt.Println(dec.Int64())
	fmt.Println(dec.Err())

	// Output:
	// 1
	// 0
	// truncated data: need 8 bytes at offset 4, have 0
}

// ExampleTruncateUTF8 cuts a name without splitting a multi-byte rune
func ExampleTruncateUTF8() {
	fmt.Printf("%q\n", codec.TruncateUTF8("électrode", 1))
	fmt.Printf("%q\n", codec.TruncateUTF8("électrode", 3))

	// Output:
	// ""
	// "él"
}
