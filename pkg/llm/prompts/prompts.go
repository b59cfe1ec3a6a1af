// Package prompts provides common prompt templates for LLM interactions,
// including the context compacting prompt and the short summary prompt.
package prompts

// CompactPrompt is the prompt used for comprehensive context compacting
const CompactPrompt = `Create a comprehensive summary of the conversation history that preserves all essential context for continued development work.

Please create a conversation summary following the steps below:

1. Review the entire conversation history thoroughly to understand:
   - The user's primary objectives and detailed requirements
   - All technical decisions and implementations discussed
   - Problems encountered and solutions applied
   - Current state of work and what remains to be done

2. To understand the full context of the conversation, analyze:
   - Explicit user requests and intentions behind each request
   - Technical concepts, frameworks, and tools mentioned or used
   - Files created, modified, or discussed with their purposes
   - Error messages encountered and fixes that were applied

3. Create the summary with the following structure:

<summary>

### 1. Explicit Request and Intention
- **Primary goal**: What is the user trying to achieve?
- **Detailed description**: The user's requirements and expectations

### 2. Key Technical Concepts
[concept 1]
[concept 2]
...

### 3. Files and Code Snippets Examined
- [File 1]
   - [Purpose of the file]
   - [Summary of the changes made to the file]
   - [Important code snippets]
- [File 2]
...

### 4. Errors and Fixes Applied
Chronological list of issues encountered and their resolutions:
- [Description of the error]
   - [How it was fixed]
...

### 5. Pending Tasks
- [Pending task 1]
- [Pending task 2]
...

### 6. Current Work in Progress
[Precisely describe the current work in progress]
</summary>

IMPORTANT:
- Use the exact 6-section structure above in numerical order
- Be specific with file paths and function names
- Include exact error messages when listing errors and fixes
- This summary replaces the entire conversation history, so every detail needed for seamless continuation must be captured`

// ShortSummaryPrompt is the prompt used for generating short conversation summaries
const ShortSummaryPrompt = `Summarise the conversation in one sentence, less or equal than 12 words. Keep it short and concise.

## Tone and Style
* Use active, descriptive language without first-person pronouns
* Focus on the main topic or task discussed
* Keep it professional and direct
* Avoid unnecessary words like "help with" or "assistance for"

## Examples
<example>
<conversation>
USER: Can you help me debug this Python script?
ASSISTANT: [helps with debugging Python script]
</conversation>
<summary>Debugging Python script with proper error handling implementation.</summary>
</example>

<example>
<conversation>
USER: I need to set up a Docker container for my app
ASSISTANT: [provides Docker setup instructions]
</conversation>
<summary>Setting up Docker container with multi-stage builds.</summary>
</example>
`
