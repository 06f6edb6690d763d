package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "管理模型配置",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "查看模型配置，API Key 已隐藏",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := settings.NewFileStore(cfg.Settings.Path).Load()
		if err != nil {
			return err
		}
		t := newTable("名称", "提供方", "模型", "接口地址", "API Key", "")
		for _, m := range current.Masked().Models {
			mark := ""
			if m.Name == current.ActiveModel {
				mark = titleStyle.Render("当前")
			}
			t.Row(m.Name, m.Provider, m.ModelName, m.APIBase, m.APIKey, mark)
		}
		fmt.Println(t)

		fmt.Println(titleStyle.Render("预置模型"))
		for _, p := range settings.Presets() {
			fmt.Printf("  %-28s %s\n", p.ID, p.Label)
		}
		return nil
	},
}

var (
	setPreset string
	setModel  settings.ModelConfig
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "新增或更新模型，并设为当前模型",
	Example: `  esgctl settings set --preset openai-gpt-4o-mini --api-key sk-xxx
  esgctl settings set --name 通义 --provider qwen --model qwen-plus --api-key sk-xxx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		next := setModel
		if setPreset != "" {
			preset, err := settings.FromPreset(setPreset, setModel.APIKey)
			if err != nil {
				return err
			}
			if setModel.Name != "" {
				preset.Name = setModel.Name
			}
			next = preset
		}
		if next.Name == "" {
			next.Name = next.ModelName
		}

		svc, _, cleanup, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		current := svc.Settings()
		current.Models = upsertModel(current.Models, next)
		current.ActiveModel = next.Name
		if err := svc.UpdateSettings(cmd.Context(), current); err != nil {
			return err
		}
		fmt.Printf("%s 当前模型: %s (%s/%s)\n", titleStyle.Render("已保存"), next.Name, next.Provider, next.ModelName)
		return nil
	},
}

// upsertModel 按名称替换同名模型，不存在则追加
func upsertModel(models []settings.ModelConfig, m settings.ModelConfig) []settings.ModelConfig {
	out := make([]settings.ModelConfig, 0, len(models)+1)
	replaced := false
	for _, existing := range models {
		if existing.Name == m.Name {
			out = append(out, m)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, m)
	}
	return out
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)

	f := settingsSetCmd.Flags()
	f.StringVar(&setPreset, "preset", "", "使用预置模型")
	f.StringVar(&setModel.Name, "name", "", "模型名称")
	f.StringVar(&setModel.Provider, "provider", "", "提供方: openai / anthropic / deepseek / dashscope / qwen")
	f.StringVar(&setModel.ModelName, "model", "", "模型标识")
	f.StringVar(&setModel.APIBase, "base-url", "", "接口地址")
	f.StringVar(&setModel.APIKey, "api-key", "", "API Key")
	f.Float64Var(&setModel.Temperature, "temperature", settings.DefaultTemperature, "采样温度")
	f.IntVar(&setModel.MaxTokens, "max-tokens", settings.DefaultMaxTokens, "最大输出 token 数")
}
