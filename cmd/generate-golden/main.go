package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// ModExpCase is one x^a mod n sample.
type ModExpCase struct {
	X      int `json:"x"`
	A      int `json:"a"`
	N      int `json:"n"`
	Result int `json:"result"`
}

// GCDCase is one gcd(a, b) sample.
type GCDCase struct {
	A      int `json:"a"`
	B      int `json:"b"`
	Result int `json:"result"`
}

// OrderCase is one multiplicative order sample; Order is 0 when x is not
// invertible mod n.
type OrderCase struct {
	X     int `json:"x"`
	N     int `json:"n"`
	Order int `json:"order"`
}

// GoldenData is the layout of numtheory_golden.json.
type GoldenData struct {
	ModExp []ModExpCase `json:"modexp"`
	GCD    []GCDCase    `json:"gcd"`
	Order  []OrderCase  `json:"order"`
}

func main() {
	outputDir := flag.String("out", "internal/numtheory/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "numtheory_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Moduli cover the semiprimes the simulator can handle, from 15 up to
	// the largest N whose first register fits in 30 qubits.
	moduli := []int{15, 21, 33, 35, 91, 143, 221, 3161, 32767}
	bases := []int{2, 4, 7, 11, 13, 20}
	exponents := []int{0, 1, 2, 5, 64, 1023, 65536}

	var data GoldenData
	for _, n := range moduli {
		for _, x := range bases {
			for _, a := range exponents {
				data.ModExp = append(data.ModExp, ModExpCase{X: x, A: a, N: n, Result: modExpBig(x, a, n)})
			}
			data.Order = append(data.Order, OrderCase{X: x, N: n, Order: orderBig(x, n)})
		}
	}

	pairs := [][2]int{{0, 0}, {0, 9}, {12, 0}, {15, 10}, {21, 14}, {48, 18}, {1071, 462}, {32767, 3161}, {1 << 20, 1 << 12}, {3 * 5 * 7 * 11, 7 * 11 * 13}}
	for _, p := range pairs {
		g := new(big.Int).GCD(nil, nil, big.NewInt(int64(p[0])), big.NewInt(int64(p[1])))
		data.GCD = append(data.GCD, GCDCase{A: p[0], B: p[1], Result: int(g.Int64())})
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s (%d modexp, %d gcd, %d order)\n",
		filename, len(data.ModExp), len(data.GCD), len(data.Order))
}

// modExpBig is the math/big oracle for x^a mod n.
func modExpBig(x, a, n int) int {
	r := new(big.Int).Exp(big.NewInt(int64(x)), big.NewInt(int64(a)), big.NewInt(int64(n)))
	return int(r.Int64())
}

// orderBig finds the multiplicative order of x mod n by repeated
// multiplication, or 0 when gcd(x, n) != 1.
func orderBig(x, n int) int {
	bn := big.NewInt(int64(n))
	if new(big.Int).GCD(nil, nil, big.NewInt(int64(x)), bn).Int64() != 1 {
		return 0
	}
	bx := new(big.Int).Mod(big.NewInt(int64(x)), bn)
	v := new(big.Int).Set(bx)
	one := big.NewInt(1)
	for r := 1; r <= n; r++ {
		if v.Cmp(one) == 0 {
			return r
		}
		v.Mul(v, bx).Mod(v, bn)
	}
	return 0
}
