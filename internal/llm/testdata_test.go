package llm

var sampleTool = ToolDefinition{
	Name:        "set_appointment",
	Description: "Set the appointment.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"day":  map[string]any{"type": "string", "description": "YYYY-MM-DD"},
			"hour": map[string]any{"type": "string", "description": "HH:MM"},
		},
		"required": []string{"day", "hour"},
	},
}
