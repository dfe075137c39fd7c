// Package tools defines tool contracts and the capabilities exposed to the
// controller.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Registry: name-to-definition lookup with duplicate and unknown-name errors.
//   - Domain tools: search_jobs (job board query), send_email (SMTP delivery).
//   - Invariants: handlers never panic; typed failures travel as safety.ToolError JSON.
package tools
