package core

// TemplateHeader is the canonical header of a business import file.
const TemplateHeader = "name,email,admin_name,description,phone,website,address,category"

// TemplateFileName is the suggested download name for the import template.
const TemplateFileName = "business_import_template.csv"

const templateRows = `"Acme Bakery","owner@acmebakery.com","Jane Doe","Fresh bread, pastries and cakes","+1 555-010-2000","https://acmebakery.com","12 Main St, Springfield","Food & Drink"
"Bright Dental","hello@brightdental.com","John Smith","Family dentistry","555-010-3000","https://brightdental.com","48 Oak Ave, Springfield","Health"
`

// GenerateTemplate returns a sample import file with two example rows.
func GenerateTemplate() string {
	return TemplateHeader + "\n" + templateRows
}
