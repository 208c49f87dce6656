package state

import "maps"

// Default declares the kind of a key and builds a fresh default value.
type Default struct {
	Kind Kind
	New  func() any
}

func str(v string) Default { return Default{Kind: KindString, New: func() any { return v }} }
func flag(v bool) Default { return Default{Kind: KindBool, New: func() any { return v }} }
func integer(v int) Default { return Default{Kind: KindInt, New: func() any { return v }} }
func number(v float64) Default { return Default{Kind: KindFloat, New: func() any { return v }} }

func strs(v ...string) Default {
	return Default{Kind: KindStrings, New: func() any { return append([]string{}, v...) }}
}

func criteria(v ...Criterion) Default {
	return Default{Kind: KindCriteria, New: func() any { return append([]Criterion{}, v...) }}
}

func records(v ...Record) Default {
	return Default{Kind: KindRecords, New: func() any {
		out := make([]Record, len(v))
		for i, r := range v {
			out[i] = maps.Clone(r)
		}
		return out
	}}
}

func mappings() Default {
	return Default{Kind: KindMappings, New: func() any { return []Mapping{} }}
}

var defaultCriteria = []Criterion{
	{Name: "Accuracy", Description: "Factual correctness and absence of errors", Weight: 5},
	{Name: "Clarity", Description: "Clear and understandable explanations", Weight: 4},
	{Name: "Completeness", Description: "Comprehensive coverage of the topic", Weight: 3},
	{Name: "Relevance", Description: "Direct relevance to the query or task", Weight: 4},
}

// canonicalDefaults is the one table every key's default comes from.
func canonicalDefaults() map[string]Default {
	return map[string]Default{
		KeyContext:            str("You are an AI assistant with expertise in content creation. You have access to information about modern software development practices and project management methodologies."),
		KeyTask:               str("Create a comprehensive guide on implementing Agile methodology in software development teams."),
		KeyInputFormat:        str("Plain Text"),
		KeyInputDescription:   str("The user will provide information about their team size, current processes, and specific challenges."),
		KeyOutputFormat:       str("Markdown"),
		KeyOutputTone:         str("Professional"),
		KeyOutputRequirements: str("Length: Comprehensive but concise, focusing on actionable insights\nInclude: Headers, bullet points, and examples where appropriate"),
		KeyExamples: {Kind: KindExamples, New: func() any {
			return []Example{{
				Input:  "What are the key principles of Agile development?",
				Output: "Agile development is based on four key values and twelve principles outlined in the Agile Manifesto. The four values are:\n\n1. Individuals and interactions over processes and tools\n2. Working software over comprehensive documentation\n3. Customer collaboration over contract negotiation\n4. Responding to change over following a plan\n\nThese values are supported by principles such as delivering working software frequently, welcoming changing requirements, and maintaining technical excellence.",
			}}
		}},
		KeyConstraints:        str("Focus on practical implementation rather than theoretical background.\nProvide specific examples for different team sizes and contexts."),
		KeyEvaluationCriteria: str("Content should be factually accurate, well-structured, practical, and actionable.\nExamples should be relevant to real-world scenarios."),
		KeySelectedWorkflows:  strs("Chain-of-Thought", "Few-Shot Learning"),
		KeySelectedAgents:     strs("Content Creator", "Editor/Refiner"),
		KeyChainOfThought: strs(
			"Analyze requirements and current team situation",
			"Research key Agile concepts relevant to the specific case",
			"Outline content structure with clear sections",
			"Draft content sections with practical examples",
			"Review for consistency and completeness",
		),

		KeyThinkingSteps:   flag(true),
		KeyIterative:       flag(false),
		KeyFewShot:         flag(true),
		KeyRAG:             flag(false),
		KeySelfConsistency: flag(false),
		KeyRouting:         flag(false),
		KeyContentCreator:  flag(true),
		KeyFactChecker:     flag(false),
		KeyEditor:          flag(true),
		KeyCritic:          flag(false),
		KeyAudienceAdapter: flag(false),

		KeyIterations:        integer(3),
		KeyIterativeFocus:    strs("Clarity", "Accuracy", "Coherence"),
		KeyIterativeNotes:    str("Improve the clarity and conciseness of the content. Ensure all concepts are explained clearly and information flows logically."),
		KeyCriticCriteria:    criteria(defaultCriteria...),
		KeyEvaluatorCriteria: criteria(defaultCriteria...),
		KeyKnowledgeSources: records(
			Record{"type": "Internal Documentation", "description": "Company documentation and policies", "enabled": true},
			Record{"type": "Industry Standards", "description": "Standards and best practices in the industry", "enabled": true},
			Record{"type": "Academic Research", "description": "Recent academic papers and research findings", "enabled": false},
		),
		KeyRoutes: records(
			Record{"name": "General Questions", "description": "Common inquiries that don't require specialized knowledge", "enabled": true},
			Record{"name": "Technical Support", "description": "Technical issues requiring specific domain expertise", "enabled": true},
			Record{"name": "Creative Requests", "description": "Requests for creative content or ideation", "enabled": true},
		),
		KeyWorkers: records(
			Record{"name": "Research Worker", "skills": "Information gathering, data analysis", "model": "Claude 3.5 Sonnet"},
			Record{"name": "Content Writer", "skills": "Content creation, formatting, style", "model": "Claude 3.5 Sonnet"},
			Record{"name": "Technical Expert", "skills": "Technical analysis, code generation", "model": "Claude 3.5 Sonnet"},
		),
		KeyParallelSections: records(
			Record{"name": "Content Analysis", "instructions": "Analyze the factual content and accuracy", "model": "Claude 3.5 Sonnet"},
			Record{"name": "Style Evaluation", "instructions": "Evaluate the writing style and tone", "model": "Claude 3.5 Haiku"},
			Record{"name": "Structure Review", "instructions": "Review the organizational structure", "model": "Claude 3.5 Sonnet"},
		),

		KeyPromptStructure: {Kind: KindBoolMap, New: func() any {
			out := make(map[string]bool, len(DefaultSectionOrder))
			for _, name := range DefaultSectionOrder {
				out[name] = true
			}
			return out
		}},
		KeySectionRoles: {Kind: KindStringMap, New: func() any {
			return maps.Clone(defaultSectionRoles)
		}},
		KeySectionOrder: strs(DefaultSectionOrder...),
		KeyDisplayMode:  str(DisplayChronological),

		KeyContentIntent:      str("Inform"),
		KeyMissionStatement:   str("This content aims to inform the audience about [topic] by providing [specific value]. It will help readers to [desired outcome]."),
		KeyVoiceChoice:        str("Professional"),
		KeyContentRules:       strs(),
		KeyContentDescription: str(""),
		KeyBusinessName:       str(""),
		KeyBusinessWhere:      str(""),
		KeyBusinessWho:        str(""),
		KeyBusinessLook:       str(""),
		KeyBusinessWhy:        str(""),
		KeyComponents:         records(),
		KeyLanguageChoice:     str("English (US)"),
		KeyGlobalization:      strs(),

		KeyFileMappings:    mappings(),
		KeyGraphQLMappings: mappings(),
		KeyManualExamples:  records(),
		KeyGraphQLEndpoint: str(""),
		KeyGraphQLQuery:    str(""),
		KeyGraphQLHeaders:  {Kind: KindStringMap, New: func() any { return map[string]string{} }},

		KeyExecProvider:         str("OpenAI"),
		KeyExecModel:            str("gpt-4o"),
		KeyExecTemperature:      number(0.7),
		KeyExecMaxTokens:        integer(2000),
		KeyExecTopP:             number(1.0),
		KeyExecFrequencyPenalty: number(0),
		KeyExecPresencePenalty:  number(0),
	}
}
