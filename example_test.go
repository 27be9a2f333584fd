package stepflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/mlind/stepflow"
)

// Example_flowBuilder demonstrates defining and running a branching
// workflow using the FlowBuilder API and an in-memory engine.
func Example_flowBuilder() {
	ctx := context.Background()
	eng := stepflow.NewInMemoryEngine()

	greet := stepflow.FuncAction("greet", func(ctx context.Context, wctx *stepflow.WorkflowContext) (*stepflow.ActionResult, error) {
		name, _ := wctx.GetString("name")
		return stepflow.ResultSuccess(map[string]any{
			"greeting": fmt.Sprintf("hello, %s", name),
		}), nil
	})
	shout := stepflow.FuncAction("shout", func(ctx context.Context, wctx *stepflow.WorkflowContext) (*stepflow.ActionResult, error) {
		greeting, _ := wctx.GetString("greeting")
		return stepflow.ResultSuccess(map[string]any{
			"greeting": greeting + "!!!",
		}), nil
	})

	for _, a := range []stepflow.Action{greet, shout} {
		if err := eng.RegisterAction(a.Name(), a); err != nil {
			log.Fatal(err)
		}
	}

	def, err := stepflow.New("greeting").
		Step("greet", stepflow.WithAction("greet")).
		Step("shout", stepflow.WithAction("shout")).
		TransitionWhen("greet", "shout", "excited = true").
		Build()
	if err != nil {
		log.Fatal(err)
	}

	inst, err := eng.Start(ctx, "greeting-1", def, map[string]any{
		"name":    "gopher",
		"excited": true,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: %v\n", inst.Status, inst.Data["greeting"])
	// Output: COMPLETED: hello, gopher!!!
}

// Example_parseDefinition demonstrates loading a workflow from a YAML
// document instead of building it in code.
func Example_parseDefinition() {
	ctx := context.Background()
	eng := stepflow.NewInMemoryEngine()

	if err := eng.RegisterAction("set-data", stepflow.NewSetDataAction()); err != nil {
		log.Fatal(err)
	}

	def, err := stepflow.ParseDefinitionYAML([]byte(`
name: approval
steps:
  - id: auto_approve
    action: set-data
    conditions:
      - "amount < 1000"
    parameters:
      approved: true
`))
	if err != nil {
		log.Fatal(err)
	}

	inst, err := eng.Start(ctx, "approval-1", def, map[string]any{"amount": 250})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s approved=%v\n", inst.Status, inst.Data["approved"])
	// Output: COMPLETED approved=true
}
