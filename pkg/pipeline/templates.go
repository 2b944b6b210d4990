package pipeline

import "github.com/shwatanab/steward-go/pkg/core"

func qualityAssessmentShape() core.Shape {
	return core.Object(map[string]core.Shape{
		"clarity_score":     core.Number(),
		"structure_score":   core.Number(),
		"evidence_score":    core.Number(),
		"coverage_score":    core.Number(),
		"consistency_score": core.Number(),
	})
}

func escalationShape() core.Shape {
	return core.Object(map[string]core.Shape{
		"topic":            core.String(),
		"forbidden_doc_id": core.String(),
		"url":              core.String(),
		"owner_name":       core.String(),
		"owner_email":      core.String(),
	})
}

// SecurityAnalystTemplate audits a draft for claims attributable only to
// forbidden context. Facts present in allowed context are safe by definition,
// even when they overlap with forbidden documents.
func SecurityAnalystTemplate(lang string) core.PromptTemplate {
	return core.PromptTemplate{
		Role:    "You are a pragmatic counter-intelligence officer.",
		Purpose: "Audit <draft_to_evaluate> for leaks of strictly forbidden information. A leak exists only when a claim appears exclusively in <forbidden_context> and nowhere in allowed material.",
		Lang:    lang,
		GuidingPrinciples: []string{
			"Output exactly ONE JSON object.",
			"A fact present in allowed context is SAFE even if it also appears in forbidden context.",
			"Matching forbidden metadata (title, document ID) without content is a safe pointer, not a leak.",
		},
		Instructions: []string{
			"Scan every fact, number and date in the draft.",
			"Mark facts found in allowed context as safe and stop analyzing them.",
			"For the remaining facts, check against <forbidden_context>; a content match is a leak.",
			"Verify access-request links name only the missing data type and carry no secrets in anchor text.",
			"Set leak_detected=true only for a confirmed leak.",
		},
		Validation: []string{"Return exactly one JSON object matching <output_schema>."},
		OutputSchema: core.Object(map[string]core.Shape{
			"thinkings": core.Object(map[string]core.Shape{
				"potential_leak_analysis": core.Array(core.String()),
				"final_determination":     core.String(),
			}),
			"leak_detected":    core.Boolean(),
			"leak_reason":      core.String(),
			"quality_warnings": core.Array(core.String()),
		}),
	}
}

// QualityAnalystTemplate scores a draft on the five quality axes, each a
// float in [0, 1].
func QualityAnalystTemplate(lang string) core.PromptTemplate {
	return core.PromptTemplate{
		Role:    "You are a specialist quality assurance and content strategist.",
		Purpose: "Verify every <user_order> is answered and assess whether the report stands alone as a professional document rather than a bare Q&A list.",
		Lang:    lang,
		GuidingPrinciples: []string{
			"Return ONE JSON object.",
			"Scores are floats in [0.0, 1.0].",
		},
		Instructions: []string{
			"Compare <user_order> against the draft and verify each item is answered, inferred or escalated.",
			"Judge clarity, structure, evidence density, coverage and consistency independently.",
			"For any score below 1.0, provide a concrete improvement suggestion naming the target section.",
		},
		Validation: []string{"Return exactly one JSON object matching <output_schema>."},
		OutputSchema: core.Object(map[string]core.Shape{
			"quality_assessment": qualityAssessmentShape(),
			"assessment_summary": core.String(),
			"improvement_suggestions": core.Array(core.Object(map[string]core.Shape{
				"target_section": core.String(),
				"suggestion":     core.String(),
			})),
		}),
	}
}

// FormatterTemplate merges the security and quality reports into one
// normalized audit record with the overall-acceptable flag and a prioritized
// list of next actions.
func FormatterTemplate(lang string) core.PromptTemplate {
	return core.PromptTemplate{
		Role:    "You are a data aggregation expert.",
		Purpose: "Merge security and quality analysis into a final audit JSON.",
		Lang:    lang,
		GuidingPrinciples: []string{
			"Return ONE JSON object. No prose, no code fences.",
		},
		Instructions: []string{
			"Merge leak_detected/leak_reason from <security_report_json>.",
			"Merge quality_assessment and assessment_summary from <quality_report_json>.",
			"Compute overall_quality_ok: false if leak_detected; else true only if all scores >= 0.7.",
			"Add next_actions: prioritized steps that would fix leaks or lift any score below 0.7.",
			"Follow the specified output language strictly ('lang').",
		},
		Validation: []string{"Return exactly one JSON object matching <output_schema>."},
		OutputSchema: core.Object(map[string]core.Shape{
			"thinkings": core.Object(map[string]core.Shape{
				"merge_log":                core.Array(core.String()),
				"quality_ok_decision_rule": core.String(),
			}),
			"leak_detected":      core.Boolean(),
			"leak_reason":        core.String(),
			"quality_assessment": qualityAssessmentShape(),
			"overall_quality_ok": core.Boolean(),
			"assessment_summary": core.String(),
			"next_actions":       core.Array(core.String()),
		}),
	}
}

// ReviewerTemplate is the planner: it turns the parent draft and its prior
// audit into a structured improvement plan.
func ReviewerTemplate(lang string) core.PromptTemplate {
	return core.PromptTemplate{
		Role:    "You are a strategic content reviewer and report architect.",
		Purpose: "Design an outline and improvement plan that turns disjointed facts into a cohesive professional report answering every <user_order>.",
		Lang:    lang,
		GuidingPrinciples: []string{
			"Output ONLY ONE JSON object.",
			"The target output is a narrative report, not a Q&A list.",
		},
		Instructions: []string{
			"Analyze the current draft and its previous audit results.",
			"Design an outline_spec mapping every <user_order> to a section.",
			"Plan where escalation links for forbidden material should appear.",
			"List concrete improvement actions: what to restructure, what context to integrate, how to handle any flagged leak.",
		},
		Validation: []string{"Return exactly one JSON object matching <output_schema>."},
		OutputSchema: core.Object(map[string]core.Shape{
			"quality_targets": core.Object(map[string]core.Shape{
				"tone_guideline":         core.String(),
				"narrative_richness":     core.String(),
				"handling_of_inference":  core.String(),
			}),
			"logic_audit": core.Array(core.Object(map[string]core.Shape{
				"original_draft_topic":   core.String(),
				"strategy_used":          core.String(),
				"audit_verdict":          core.String(),
				"correction_instruction": core.String(),
			})),
			"outline_spec": core.Array(core.Object(map[string]core.Shape{
				"section_title":          core.String(),
				"target_user_orders":     core.Array(core.String()),
				"content_source":         core.String(),
				"instruction_for_writer": core.String(),
			})),
			"escalation_placement_plan": core.Array(core.Object(map[string]core.Shape{
				"missing_item":   core.String(),
				"target_section": core.String(),
				"display_text":   core.String(),
			})),
			"improvement_plan": core.Array(core.Object(map[string]core.Shape{
				"action":         core.String(),
				"target_section": core.String(),
				"detail":         core.String(),
			})),
		}),
	}
}

// ReflectorTemplate is the composer: it produces a full replacement draft
// from the improvement plan and both context blobs.
func ReflectorTemplate(lang string) core.PromptTemplate {
	return core.PromptTemplate{
		Role:    "You are an expert report composer and compliance officer.",
		Purpose: "Produce a comprehensive replacement draft following <improvement_plan_json>, weaving allowed context into a narrative while handling forbidden material through access-request links.",
		Lang:    lang,
		GuidingPrinciples: []string{
			"Output must be ONE JSON object.",
			"Explain the why and how with allowed context; never a dry list of bullet points.",
			"Bold the specific facts that directly answer <user_order>.",
			"For forbidden details, name only the missing data type and link an access request.",
		},
		Instructions: []string{
			"Follow the outline from the improvement plan.",
			"Cite every allowed document used.",
			"Record an escalation suggestion for each forbidden source the report needs.",
			"Follow the specified output language strictly ('lang').",
		},
		Validation: []string{
			"Return one JSON object matching <output_schema>.",
			"Draft must be narrative paragraphs, not just lists.",
		},
		OutputSchema: core.Object(map[string]core.Shape{
			"thinkings": core.Object(map[string]core.Shape{
				"context_enrichment_plan": core.Array(core.String()),
				"emphasis_strategy":       core.Array(core.String()),
			}),
			"draft":                  core.String(),
			"citations":              core.Array(core.String()),
			"escalation_suggestions": core.Array(escalationShape()),
		}),
	}
}

// DraftWriterTemplate produces the initial depth-0 draft state.
func DraftWriterTemplate(lang string) core.PromptTemplate {
	return core.PromptTemplate{
		Role:    "You are an analytical draft writer for a security-aware refinement pipeline.",
		Purpose: "Produce a high-level draft that addresses every input question, prioritizing allowed context facts, inferring where facts are missing, and requesting escalation where context is forbidden.",
		Lang:    lang,
		GuidingPrinciples: []string{
			"Output exactly ONE JSON object. No prose outside the JSON.",
			"Strictly separate inferred knowledge from direct evidence.",
		},
		Instructions: []string{
			"Break <questions> into atomic sub-questions.",
			"Answer each sub-question from allowed context, by inference, by escalation request, or mark it unknown.",
			"Use hedging language for inferred answers and cite the source inferred from.",
			"For forbidden material, describe only the missing data and record an escalation suggestion.",
		},
		Validation: []string{"Return exactly one JSON object matching <output_schema>."},
		OutputSchema: core.Object(map[string]core.Shape{
			"draft":                  core.String(),
			"citations":              core.Array(core.String()),
			"escalation_suggestions": core.Array(escalationShape()),
			"thinkings": core.Array(core.Object(map[string]core.Shape{
				"step":          core.Integer(),
				"action":        core.String(),
				"decision":      core.String(),
				"rationale":     core.String(),
				"strategy_used": core.String(),
			})),
		}),
	}
}
