package numtheory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type goldenModExp struct {
	X      int `json:"x"`
	A      int `json:"a"`
	N      int `json:"n"`
	Result int `json:"result"`
}

type goldenGCD struct {
	A      int `json:"a"`
	B      int `json:"b"`
	Result int `json:"result"`
}

type goldenOrder struct {
	X     int `json:"x"`
	N     int `json:"n"`
	Order int `json:"order"`
}

type goldenData struct {
	ModExp []goldenModExp `json:"modexp"`
	GCD    []goldenGCD    `json:"gcd"`
	Order  []goldenOrder  `json:"order"`
}

func loadGolden(t *testing.T) goldenData {
	t.Helper()
	goldenPath := filepath.Join("testdata", "numtheory_golden.json")
	file, err := os.Open(goldenPath)
	if err != nil {
		t.Fatalf("Failed to open golden file: %v. Did you run 'go run ./cmd/generate-golden'?", err)
	}
	defer file.Close()

	var data goldenData
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		t.Fatalf("Failed to decode golden file: %v", err)
	}
	return data
}

func TestAgainstGoldenFile(t *testing.T) {
	t.Parallel()
	data := loadGolden(t)
	if len(data.ModExp) == 0 || len(data.GCD) == 0 || len(data.Order) == 0 {
		t.Fatal("golden file is missing sections")
	}

	t.Run("ModExp", func(t *testing.T) {
		t.Parallel()
		for _, tc := range data.ModExp {
			if got := ModExp(tc.X, tc.A, tc.N); got != tc.Result {
				t.Errorf("ModExp(%d, %d, %d) = %d, want %d", tc.X, tc.A, tc.N, got, tc.Result)
			}
		}
	})

	t.Run("GCD", func(t *testing.T) {
		t.Parallel()
		for _, tc := range data.GCD {
			if got := GCD(tc.A, tc.B); got != tc.Result {
				t.Errorf("GCD(%d, %d) = %d, want %d", tc.A, tc.B, got, tc.Result)
			}
		}
	})

	t.Run("Order", func(t *testing.T) {
		t.Parallel()
		for _, tc := range data.Order {
			t.Run(fmt.Sprintf("x=%d/n=%d", tc.X, tc.N), func(t *testing.T) {
				got, ok := MultiplicativeOrder(tc.X, tc.N)
				if ok != (tc.Order != 0) || got != tc.Order {
					t.Errorf("MultiplicativeOrder(%d, %d) = (%d, %v), want %d", tc.X, tc.N, got, ok, tc.Order)
				}
			})
		}
	})
}
