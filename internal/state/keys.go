package state

// Store keys shared across packages.
const (
	KeyContext            = "context"
	KeyTask               = "task"
	KeyInputFormat        = "input_format"
	KeyInputDescription   = "input_description"
	KeyOutputFormat       = "output_format"
	KeyOutputTone         = "output_tone"
	KeyOutputRequirements = "output_requirements"
	KeyExamples           = "examples"
	KeyConstraints        = "constraints"
	KeyEvaluationCriteria = "evaluation_criteria"
	KeySelectedWorkflows  = "selected_workflows"
	KeySelectedAgents     = "selected_agents"
	KeyChainOfThought     = "chain_of_thought_steps"

	KeyThinkingSteps     = "thinking_steps_enabled"
	KeyIterative         = "iterative_refinement_enabled"
	KeyFewShot           = "few_shot_enabled"
	KeyRAG               = "rag_enabled"
	KeySelfConsistency   = "self_consistency_enabled"
	KeyRouting           = "routing_enabled"
	KeyContentCreator    = "content_creator_enabled"
	KeyFactChecker       = "fact_checker_enabled"
	KeyEditor            = "editor_enabled"
	KeyCritic            = "critic_enabled"
	KeyAudienceAdapter   = "audience_adapter_enabled"
	KeyIterations        = "iterative_iterations"
	KeyIterativeFocus    = "iterative_focus"
	KeyIterativeNotes    = "iterative_instructions"
	KeyCriticCriteria    = "critic_evaluation_criteria"
	KeyEvaluatorCriteria = "evaluator_criteria"
	KeyKnowledgeSources  = "rag_knowledge_sources"
	KeyRoutes            = "routing_routes"
	KeyWorkers           = "orchestrator_workers"
	KeyParallelSections  = "parallelization_sections"

	KeyPromptStructure = "prompt_structure"
	KeySectionRoles    = "section_roles"
	KeySectionOrder    = "prompt_section_order"
	KeyDisplayMode     = "structure_display_mode"

	KeyContentIntent      = "content_intent"
	KeyMissionStatement   = "mission_statement"
	KeyVoiceChoice        = "voice_choice"
	KeyContentRules       = "content_rules"
	KeyContentDescription = "content_description"
	KeyBusinessName       = "business_name"
	KeyBusinessWhere      = "business_where"
	KeyBusinessWho        = "business_who"
	KeyBusinessLook       = "business_look"
	KeyBusinessWhy        = "business_why"
	KeyComponents         = "components"
	KeyLanguageChoice     = "language_choice"
	KeyGlobalization      = "globalization_items"

	KeyFileMappings    = "file_mappings"
	KeyGraphQLMappings = "graphql_mappings"
	KeyManualExamples  = "manual_examples"
	KeyGraphQLEndpoint = "graphql_endpoint"
	KeyGraphQLQuery    = "graphql_query"
	KeyGraphQLHeaders  = "graphql_headers"

	KeyExecProvider         = "execution_provider"
	KeyExecModel            = "execution_model"
	KeyExecTemperature      = "execution_temperature"
	KeyExecMaxTokens        = "execution_max_tokens"
	KeyExecTopP             = "execution_top_p"
	KeyExecFrequencyPenalty = "execution_frequency_penalty"
	KeyExecPresencePenalty  = "execution_presence_penalty"
)

// Built-in section names.
const (
	SectionContext     = "Context & Background"
	SectionTask        = "Task Definition"
	SectionInput       = "Input Data Format"
	SectionOutput      = "Output Requirements"
	SectionExamples    = "Examples (Few-Shot Learning)"
	SectionCoT         = "Chain-of-Thought Instructions"
	SectionSelfReview  = "Self-Review Requirements"
	SectionFactCheck   = "Fact Checking Instructions"
	SectionIntent      = "Content Intent & Guidelines"
	SectionSetup       = "Content Setup"
	SectionDesign      = "Design Requirements"
	SectionDataSources = "Data Sources & Examples"
)

// Display modes for the structure view.
const (
	DisplayChronological = "Chronological Order"
	DisplayGrouped       = "Grouped by Role"
)

// Section roles as stored in section_roles.
const (
	RoleSystem = "System"
	RoleUser   = "User"
)

// DefaultSectionOrder is the initial ordering of built-in sections.
var DefaultSectionOrder = []string{
	SectionContext,
	SectionTask,
	SectionInput,
	SectionOutput,
	SectionExamples,
	SectionCoT,
	SectionSelfReview,
	SectionFactCheck,
}

var defaultSectionRoles = map[string]string{
	SectionContext:    RoleSystem,
	SectionTask:       RoleUser,
	SectionInput:      RoleUser,
	SectionOutput:     RoleUser,
	SectionExamples:   RoleUser,
	SectionCoT:        RoleUser,
	SectionSelfReview: RoleSystem,
	SectionFactCheck:  RoleUser,
}

// DefaultRole returns the built-in role of a section, or User.
func DefaultRole(section string) string {
	if r, ok := defaultSectionRoles[section]; ok {
		return r
	}
	return RoleUser
}
