// Package steward refines LLM-drafted documents through a stochastic tree
// search: candidate drafts are scored by a leak-audited quality pipeline,
// improved by a planner/composer pair, and explored epsilon-greedily under a
// bounded frontier until the trial budget runs out. The best-scoring draft
// found anywhere in the tree wins.
//
// Key Components:
//
//   - Core: the Oracle abstraction over generative backends, plus the Shape
//     schema descriptors and PromptTemplate/PromptInstance types every stage
//     builds its calls from.
//
//   - Decoding: resilient structured decoding of oracle text. Extracts JSON
//     candidate spans (fences, tags, brace spans), applies light mechanical
//     repair, validates against the expected shape, and escalates the prompt
//     with explicit formatting rules and missing-key lists until it gets a
//     conforming object or degrades explicitly. Decode failures are routine
//     events here, never panics.
//
//   - Search: the refinement tree. Scored draft nodes, a bounded heap
//     frontier, sha256 duplicate suppression, and the epsilon-greedy loop
//     that trades exploiting the best known draft against revisiting
//     runners-up.
//
//   - Pipeline: the oracle-backed stages. The evaluation pipeline runs
//     security, quality and formatter critics with local fallbacks for every
//     stage; the action pipeline turns an audited draft into a planned,
//     recomposed child; the draft writer produces the depth-0 state.
//
//   - LLMs: Anthropic and OpenAI-compatible oracle implementations behind a
//     model-ID routing factory, with an optional SQLite response cache.
//
// The steward command wires these together: load config, build the oracle,
// write an initial draft, then search.
package steward
