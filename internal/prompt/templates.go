package prompt

// OutputShape is the answer format every email prompt asks for. The parser in
// internal/email depends on the "Subject Line:" marker.
const OutputShape = `Subject Line: [Your subject line here]

[Your email body here]`

const leadSection = `Name: {{.Lead.Name}}
Job Title: {{.Lead.JobTitle}}
Company: {{.Lead.Company}}
Industry: {{.Lead.Industry}}
Interests: {{join .Lead.Interests}}
Pain Points: {{join .Lead.PainPoints}}`

const productSection = `Product Name: {{.Product.Name}}
Description: {{.Product.Description}}
Key Features: {{join .Product.KeyFeatures}}
Benefits: {{join .Product.Benefits}}`

const emailTemplate = `Create a personalized sales email for the following prospect:

LEAD INFORMATION:
` + leadSection + `
Recent LinkedIn Activity: {{.Lead.LinkedInActivity}}

PRODUCT INFORMATION:
` + productSection + `

INSTRUCTIONS:
1. Generate a compelling subject line that references the lead's pain points or interests
2. Create a personalized email body that:
   - Starts with a personalized opening that references their LinkedIn activity or industry
   - Addresses their specific pain points
   - Briefly introduces our product as a solution
   - Mentions 1-2 relevant benefits or features
   - Ends with a clear, low-pressure call to action
3. Keep the email concise (150-200 words)
4. Use a professional but conversational tone

FORMAT YOUR RESPONSE AS:
{{.Shape}}`

const analysisTemplate = `You are a Lead Analyst, an expert in understanding customer needs and preferences.
Your goal is to analyze lead data to identify key interests and pain points.

Analyze the following lead information:
` + leadSection + `
LinkedIn Activity: {{.Lead.LinkedInActivity}}

Identify:
1. Key pain points to address
2. Relevant interests to mention
3. Personalization opportunities based on LinkedIn activity
4. Appropriate tone and approach for their position`

const writerTemplate = `You are an Email Writer, a skilled copywriter specializing in sales communications.
Your goal is to write compelling personalized emails that address lead needs.

LEAD ANALYSIS:
{{.Analysis}}

Using the lead analysis and product information, create a personalized email:

` + productSection + `

Create:
1. An attention-grabbing subject line
2. A personalized email body that addresses the lead's pain points
3. A concise mention of relevant product benefits
4. A clear call to action

Format your response as:
{{.Shape}}`
