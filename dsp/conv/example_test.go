package conv_test

import (
	"fmt"

	"github.com/cwbudde/algo-nir/dsp/conv"
)

func ExampleCorrelateValid() {
	out, err := conv.CorrelateValid([]float64{1, 4, 9, 16, 25}, []float64{-0.5, 0, 0.5})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out)

	// Output:
	// [4 6 8]
}
