package table_test

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-nir/nir/table"
)

func ExampleTable_Records() {
	tbl, _ := table.New(
		[]string{table.Wavelength, table.MSC},
		[][]float64{{950, 952}, {0, 1}},
	)

	b, _ := json.Marshal(tbl.Records())
	fmt.Println(string(b))

	// Output:
	// [{"Wavelength":950,"MSC":0},{"Wavelength":952,"MSC":1}]
}

func ExampleTable_Column() {
	tbl := table.Empty()
	col := tbl.Column(table.Absorbance)
	fmt.Println(col.Present, len(col.OrEmpty()))

	// Output:
	// false 0
}
