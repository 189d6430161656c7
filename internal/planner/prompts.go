package planner

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"mealplan-engine/internal/profile"
	"mealplan-engine/internal/validate"
)

//go:embed plan_prompt.md
var planPrompt string

//go:embed repair_prompt.md
var repairPrompt string

type planPromptData struct {
	Profile          profile.UserProfile
	TargetCalories   float64
	CalorieTolerance float64
	SnackCapPct      float64
	PlanType         string
	Duration         int
	StartDay         int
	EndDay           int
}

type repairPromptData struct {
	Profile          profile.UserProfile
	TargetCalories   float64
	CalorieTolerance float64
	Violations       []validate.Violation
	PlanJSON         string
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
}

func buildPlanPrompt(data planPromptData) (string, error) {
	tmpl, err := template.New("plan").Funcs(promptFuncs).Parse(planPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildRepairPrompt(data repairPromptData) (string, error) {
	tmpl, err := template.New("repair").Funcs(promptFuncs).Parse(repairPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
