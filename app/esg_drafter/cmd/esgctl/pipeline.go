package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/workflow"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "查看流水线步骤及其输入输出",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for i, step := range workflow.New().Trace() {
			fmt.Printf("%s %s\n", titleStyle.Render(fmt.Sprintf("%d. %s", i+1, step.Name)), step.Description)
			fmt.Printf("   requires: %s\n", joinKeys(step.Requires))
			if len(step.Optional) > 0 {
				fmt.Printf("   optional: %s\n", joinKeys(step.Optional))
			}
			fmt.Printf("   produces: %s\n", joinKeys(step.Produces))
		}
	},
}

func joinKeys[K ~string](keys []K) string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, string(k))
	}
	return strings.Join(out, ", ")
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "输出报告包的 JSON Schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(packageSchema())
	},
}

// packageSchema 反射报告包结构，日期字段按 date 格式描述
func packageSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(model.Date{}) {
				return &jsonschema.Schema{Type: "string", Format: "date"}
			}
			return nil
		},
	}
	return r.Reflect(&model.ESGReportPackage{})
}

func init() {
	rootCmd.AddCommand(pipelineCmd, schemaCmd)
}
