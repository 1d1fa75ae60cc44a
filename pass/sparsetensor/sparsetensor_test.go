package sparsetensor_test

import (
	"strings"
	"testing"

	"github.com/wasmlir/wasmlir"
	"github.com/wasmlir/wasmlir/internal/fakelib"
	"github.com/wasmlir/wasmlir/pass"
	"github.com/wasmlir/wasmlir/pass/sparsetensor"
)

func TestTableCompleteness(t *testing.T) {
	entries := sparsetensor.Passes()
	if len(entries) != 12 {
		t.Fatalf("table has %d entries, want 12", len(entries))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Group != sparsetensor.Group {
			t.Errorf("%s: group = %q", e.Name, e.Group)
		}
		if want := "mlirCreateSparseTensor" + e.Name; e.Symbol != want {
			t.Errorf("%s: symbol = %q, want %q", e.Name, e.Symbol, want)
		}
		if seen[e.Symbol] {
			t.Errorf("duplicate symbol %q", e.Symbol)
		}
		seen[e.Symbol] = true
	}
}

func TestPassesReturnsACopy(t *testing.T) {
	a := sparsetensor.Passes()
	a[0].Symbol = "tampered"
	if sparsetensor.Passes()[0].Symbol == "tampered" {
		t.Error("Passes exposes the internal table")
	}
}

func TestCreateAllPasses(t *testing.T) {
	lib := fakelib.New()

	handles := make(map[uint64]string)
	for _, e := range sparsetensor.Passes() {
		p, err := e.Create(lib)
		if err != nil {
			t.Fatalf("%s: Create: %v", e.Name, err)
		}
		if p.IsNull() {
			t.Errorf("%s: null pass handle", e.Name)
		}
		if prev, dup := handles[p.Raw()]; dup {
			t.Errorf("%s: handle collides with %s", e.Name, prev)
		}
		handles[p.Raw()] = e.Name
	}
}

func TestConvenienceConstructors(t *testing.T) {
	lib := fakelib.New()

	tests := []struct {
		name  string
		build func(wasmlir.Library) (pass.Pass, error)
	}{
		{"LowerForeachToSCF", sparsetensor.LowerForeachToSCF},
		{"LowerSparseOpsToForeach", sparsetensor.LowerSparseOpsToForeach},
		{"PreSparsificationRewrite", sparsetensor.PreSparsificationRewrite},
		{"SparseBufferRewrite", sparsetensor.SparseBufferRewrite},
		{"SparseTensorCodegen", sparsetensor.SparseTensorCodegen},
		{"SparseTensorConversionPass", sparsetensor.SparseTensorConversionPass},
		{"SparseReinterpretMap", sparsetensor.SparseReinterpretMap},
		{"SparseVectorization", sparsetensor.SparseVectorization},
		{"SparsificationPass", sparsetensor.SparsificationPass},
		{"StorageSpecifierToLLVM", sparsetensor.StorageSpecifierToLLVM},
		{"SparsificationAndBufferization", sparsetensor.SparsificationAndBufferization},
		{"StageSparseOperations", sparsetensor.StageSparseOperations},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build(lib)
			if err != nil {
				t.Fatalf("constructor: %v", err)
			}
			if p.IsNull() {
				t.Error("null pass handle")
			}
		})
	}
}

func TestGroupNamingConvention(t *testing.T) {
	for _, e := range sparsetensor.Passes() {
		if !strings.HasPrefix(e.Symbol, "mlirCreate"+e.Group) {
			t.Errorf("%s: symbol %q does not carry the group prefix", e.Name, e.Symbol)
		}
	}
}
