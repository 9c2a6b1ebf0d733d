// Package prompts holds the static workflow templates published as MCP
// prompts. Templates are generic over servers and processes; the caller's
// arguments are interpolated into step-by-step instructions for the model.
package prompts

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/geoapi-labs/ogcd/internal/errors"
)

// Definition pairs a prompt declaration with its renderer.
type Definition struct {
	Prompt mcp.Prompt
	Render func(args map[string]string) (string, error)
}

// All returns every workflow prompt in registration order.
func All() []Definition {
	return []Definition{
		spatialAnalysis(),
		dataDiscovery(),
		serverExploration(),
	}
}

func requireArg(args map[string]string, name string) (string, error) {
	v := args[name]
	if v == "" {
		return "", fmt.Errorf("%w: prompt argument %q is required", errors.ErrBadRequest, name)
	}
	return v, nil
}

func spatialAnalysis() Definition {
	return Definition{
		Prompt: mcp.Prompt{
			Name:        "spatial_analysis_workflow",
			Description: "Guide through a complete spatial analysis on any OGC server: discover, pick a process, gather inputs, execute, monitor, present results.",
			Arguments: []mcp.PromptArgument{
				{Name: "server_url", Description: "Base URL of the OGC API server", Required: true},
				{Name: "analysis_goal", Description: "What the analysis should accomplish", Required: true},
				{Name: "user_data_description", Description: "Data the user already has available"},
			},
		},
		Render: func(args map[string]string) (string, error) {
			serverURL, err := requireArg(args, "server_url")
			if err != nil {
				return "", err
			}
			goal, err := requireArg(args, "analysis_goal")
			if err != nil {
				return "", err
			}

			dataLine := ""
			if d := args["user_data_description"]; d != "" {
				dataLine = fmt.Sprintf("My available data: %s\n", d)
			}

			return fmt.Sprintf(
				"I want to perform the following spatial analysis: %s\n"+
					"OGC API Server: %s\n"+
					"%s\n"+
					"Please guide me through this by following these steps:\n"+
					"1. Use discover_ogc_server to understand what this server offers.\n"+
					"2. Use discover_processes to find processes relevant to my goal.\n"+
					"3. Use get_process_detail on the most relevant process to understand its inputs.\n"+
					"4. Tell me what inputs are needed and pre-fill any you can determine from context.\n"+
					"5. Ask me only for inputs you cannot determine yourself.\n"+
					"6. Execute the process once all inputs are confirmed.\n"+
					"7. If the job is async, use get_job_status to monitor progress.\n"+
					"8. Use get_job_results and explain the output to me in plain language.",
				goal, serverURL, dataLine,
			), nil
		},
	}
}

func dataDiscovery() Definition {
	return Definition{
		Prompt: mcp.Prompt{
			Name:        "data_discovery_workflow",
			Description: "Guide through discovering and fetching relevant geospatial data from an OGC API Features or Records server.",
			Arguments: []mcp.PromptArgument{
				{Name: "server_url", Description: "Base URL of the OGC API server", Required: true},
				{Name: "data_need", Description: "The data being looked for", Required: true},
				{Name: "area_of_interest", Description: "Geographic area to restrict the search to"},
			},
		},
		Render: func(args map[string]string) (string, error) {
			serverURL, err := requireArg(args, "server_url")
			if err != nil {
				return "", err
			}
			need, err := requireArg(args, "data_need")
			if err != nil {
				return "", err
			}

			areaLine := ""
			bboxHint := ""
			if area := args["area_of_interest"]; area != "" {
				areaLine = fmt.Sprintf("Area of interest: %s\n", area)
				bboxHint = fmt.Sprintf(" and a bbox for %s", area)
			}

			return fmt.Sprintf(
				"I need to find: %s\n"+
					"OGC API Server: %s\n"+
					"%s\n"+
					"Please follow these steps:\n"+
					"1. Use get_collections to see all available datasets on this server.\n"+
					"2. Identify which collections are most relevant to my data need.\n"+
					"3. Use get_collection_detail for the most relevant collection.\n"+
					"4. Use get_features with appropriate filters%s.\n"+
					"5. Summarize what you found in plain language including feature count, geographic coverage, and key properties.",
				need, serverURL, areaLine, bboxHint,
			), nil
		},
	}
}

func serverExploration() Definition {
	return Definition{
		Prompt: mcp.Prompt{
			Name:        "server_exploration_workflow",
			Description: "Fully explore an unknown OGC API server and summarize its datasets and analyses in plain language.",
			Arguments: []mcp.PromptArgument{
				{Name: "server_url", Description: "Base URL of the OGC API server", Required: true},
			},
		},
		Render: func(args map[string]string) (string, error) {
			serverURL, err := requireArg(args, "server_url")
			if err != nil {
				return "", err
			}

			return fmt.Sprintf(
				"Please fully explore the OGC API server at: %s\n\n"+
					"Follow these steps in order:\n"+
					"1. Use discover_ogc_server to get the server overview and capabilities.\n"+
					"2. Use get_collections to list every available dataset.\n"+
					"3. Use discover_processes to list every available spatial analysis.\n"+
					"4. Give me a comprehensive plain-language summary covering:\n"+
					"   - What this server is and who operates it\n"+
					"   - What datasets are available and their topics\n"+
					"   - What analyses can be run\n"+
					"   - What kinds of questions I could answer using this server",
				serverURL,
			), nil
		},
	}
}
