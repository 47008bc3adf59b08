package plantuml_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stateforward/go-hybrid"
	"github.com/stateforward/go-hybrid/expr"
	"github.com/stateforward/go-hybrid/pkg/plantuml"
	"github.com/stateforward/go-hybrid/watertank"
)

func TestGenerate(t *testing.T) {
	valve := watertank.Valve(expr.Param("T", 4), watertank.ValveLevel(0), 0)
	controller, err := watertank.UrgentController(watertank.WaterLevel(0), expr.Param("hmin", 5.75), expr.Param("hmax", 7.75), valve, 0)
	if err != nil {
		t.Fatal(err)
	}
	system, err := hybrid.Compose("module0", valve, controller, "idle_0", "rising0")
	if err != nil {
		t.Fatal(err)
	}
	var buffer bytes.Buffer
	if err := plantuml.Generate(&buffer, system); err != nil {
		t.Fatal(err)
	}
	diagram := buffer.String()
	for _, expected := range []string{
		"@startuml module0\n",
		"  state \"idle_0,rising0\" as idle_0__rising0\n",
		"  state opening_0__rising0: dvalveLevel0/dt = (1 / T)\n",
		"[*] --> idle_0__rising0\n",
		"idle_0__rising0 -[bold]-> closing_0__falling0 : e_close_0 [(waterLevel0 - hmax) >= 0]\n",
		"opening_0__rising0 -[bold]-> idle_0__rising0 : e_idle_0 [(valveLevel0 - 1) >= 0] / valveLevel0 := 1\n",
		"@enduml\n",
	} {
		if !strings.Contains(diagram, expected) {
			t.Fatalf("expected diagram to contain %q, got:\n%s", expected, diagram)
		}
	}
}
