package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/plant-disease-api/internal/model"
)

var classesOut string

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Compare the model output width with the class list and export it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		classes, err := model.LoadClassNames(cfg.ClassesPath)
		if err != nil {
			return err
		}

		meta, err := model.ReadMetadata(cfg.ModelPath, loadOptions(cfg, nil).Session)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(meta.OutputShape) > 0 {
			fmt.Fprintf(out, "Model expects %d classes\n", meta.OutputShape[len(meta.OutputShape)-1])
		}
		fmt.Fprintf(out, "We have %d class names\n", len(classes))
		fmt.Fprintln(out, "\nClass names:")
		for i, name := range classes {
			fmt.Fprintf(out, "%d: %s\n", i, name)
		}

		if err := meta.Validate(len(classes)); err != nil {
			logrus.WithError(err).Warn("Model and class list disagree")
		}

		if classesOut == "" {
			return nil
		}
		if err := model.WriteClassNames(classesOut, classes); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nClass names saved to %s\n", classesOut)
		return nil
	},
}

func init() {
	classesCmd.Flags().StringVarP(&classesOut, "out", "o", "class_names.json", "file to write the class names to (empty to skip)")
}
