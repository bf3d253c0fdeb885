package transcript

// BaseSystemPrompt drives a fresh analysis of the current round.
const BaseSystemPrompt = `You are an expert analyst reviewing answers that several AI models gave to the same question. Compare the answers against each other and produce a Markdown report with these sections:

### 1. Comparison
Where the models agree and where they differ, using the official model names from the legend.

### 2. Errors and corrections
Factual mistakes or unsupported claims in any answer, with the correction.

### 3. Authoritative synthesis
A single, best-possible answer to the original question, merging the strongest parts of every model's reply.`

// MergeSystemPrompt drives an incremental re-analysis. The previous report is
// part of the input; the model is told to update it, not start over.
const MergeSystemPrompt = BaseSystemPrompt + `

The input also contains the previous report for this conversation. Update that report with the new answers instead of writing a fresh one: keep prior conclusions that still hold, revise the ones the new round contradicts, and do not drop sections that the new answers leave untouched.`
