package nexfile_test

import (
	"fmt"

	"github.com/ssargent/nexkit/pkg/nexfile"
	"github.com/ssargent/nexkit/pkg/recording"
)

func Example() {
	s := recording.NewSession(1000)
	s.Intervals = append(s.Intervals, recording.NewInterval(recording.AllFileName, []float64{0}, []float64{9.999}))
	s.Continuous = append(s.Continuous, recording.NewContinuous("FP01", 1000, []float64{0}, []uint32{0}, []float32{1.5, -2.25}))

	data, err := nexfile.Encode(s)
	if err != nil {
		fmt.Println("encode:", err)
		return
	}

	back, err := nexfile.Decode(data)
	if err != nil {
		fmt.Println("decode:", err)
		return
	}
	fmt.Println(back.Intervals[0].Name, back.Intervals[0].Ends[0])
	fmt.Println(back.Continuous[0].Samples)

	// Output:
	// AllFile 9.999
	// [1.5 -2.25]
}
