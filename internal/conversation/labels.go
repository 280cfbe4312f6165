package conversation

import "strings"

// Backend agent names with special handling in the fold.
const (
	agentRootOrchestrator = "root_agent"
	agentReportGenerator  = "report_generator_agent"
)

// timelineTitle maps an agent name to the title used for its timeline events.
func timelineTitle(agent string) string {
	switch agent {
	case "root_agent":
		return "Orchestrating Agents"
	case "campaign_guide_data_generation_agent":
		return "Processing Campaign Guide"
	case "trends_and_insights_agent":
		return "Analyzing Trends"
	case "combined_research_merger":
		return "Coordinating Research"
	case "combined_research_pipeline":
		return "Research Pipeline"
	case "merge_parallel_insights":
		return "Parallel Research"
	case "parallel_planner_agent":
		return "Planning Research"
	case "yt_sequential_planner":
		return "YouTube Analysis"
	case "gs_sequential_planner":
		return "Google Search Analysis"
	case "ca_sequential_planner":
		return "Campaign Research"
	case "merge_planners":
		return "Merging Research Plans"
	case "combined_web_evaluator":
		return "Quality Check"
	case "enhanced_combined_searcher":
		return "Enhanced Search"
	case "combined_report_composer":
		return "Composing Report"
	case "ad_content_generator_agent":
		return "Generating Ad Content"
	case "ad_creative_pipeline":
		return "Ad Copy Generation"
	case "visual_generation_pipeline":
		return "Visual Concept Development"
	case "visual_generator":
		return "Generating Visuals"
	case "report_generator_agent":
		return "Compiling PDF Report"
	default:
		if agent == "" {
			agent = "Unknown Agent"
		}
		return "Processing (" + agent + ")"
	}
}

// Per-agent base labels for the synthesized processing placeholder.
var processingLabels = map[string]string{
	"root_agent":                           "Orchestrating agents",
	"campaign_guide_data_generation_agent": "Analyzing campaign guide",
	"campaign_guide_data_extract_agent":    "Extracting campaign details",
	"trends_and_insights_agent":            "Processing trends and insights",
	"combined_research_merger":             "Coordinating research",
	"combined_research_pipeline":           "Running research pipeline",
	"parallel_planner_agent":               "Planning research strategies",
	"yt_sequential_planner":                "Analyzing YouTube trends",
	"yt_analysis_generator":                "Generating YouTube analysis",
	"yt_web_planner":                       "Planning YouTube research",
	"yt_web_searcher":                      "Searching YouTube insights",
	"gs_sequential_planner":                "Analyzing Google trends",
	"gs_web_planner":                       "Planning Google research",
	"gs_web_searcher":                      "Searching Google insights",
	"ca_sequential_planner":                "Researching campaign",
	"campaign_web_planner":                 "Planning campaign research",
	"campaign_web_searcher":                "Searching campaign insights",
	"merge_planners":                       "Merging research plans",
	"merge_parallel_insights":              "Combining parallel insights",
	"combined_web_evaluator":               "Evaluating research quality",
	"enhanced_combined_searcher":           "Enhancing search results",
	"combined_report_composer":             "Composing research report",
	"combined_report_agent":                "Finalizing research findings",
	"ad_content_generator_agent":           "Creating ad campaigns",
	"ad_creative_pipeline":                 "Crafting ad copy",
	"ad_copy_drafter":                      "Drafting ad variations",
	"ad_copy_critic":                       "Reviewing ad copy",
	"ad_copy_finalizer":                    "Finalizing ad copy",
	"visual_generation_pipeline":           "Designing visuals",
	"visual_concept_drafter":               "Creating visual concepts",
	"visual_concept_critic":                "Reviewing concepts",
	"visual_concept_finalizer":             "Finalizing visuals",
	"visual_generator":                     "Generating media",
	"report_generator_agent":               "Compiling final report",
}

// processingMessage synthesizes placeholder content for an ai message while
// no real text has accumulated.
func processingMessage(agent, activity string) string {
	if agent == "" {
		return "Processing your request..."
	}
	base, ok := processingLabels[agent]
	if !ok {
		base = strings.ReplaceAll(agent, "_", " ")
	}
	if activity != "" {
		return base + " - " + activity
	}
	return base + "..."
}
