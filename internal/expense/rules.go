package expense

import "github.com/goldstone/sync-service/internal/domain"

// categoryRules is evaluated in order; the first match wins. The table keeps
// three layers per primary label: merchant-name overrides, label-specific
// dispatch, then the label's fallback. A final catch-all is applied by the
// evaluator for primaries not listed here.
var categoryRules = []rule{
	// Donations are special regardless of how the aggregator labels them.
	{nameContains: "donation", category: domain.ExpenseSpecial},

	// Community
	{primary: "Community", secondary: "Religious", category: domain.ExpenseSpecial},
	{primary: "Community", category: domain.ExpenseOthers},

	// Food and Drink
	{primary: "Food and Drink", nameContains: "good2go", category: domain.ExpenseVehicle},
	{primary: "Food and Drink", nameContains: "korean air", category: domain.ExpenseRecreation},
	{primary: "Food and Drink", nameContains: "theory", category: domain.ExpenseShopping},
	{primary: "Food and Drink", nameContains: "crystal mountain", category: domain.ExpenseRecreation},
	{primary: "Food and Drink", nameContains: "mint mobile", category: domain.ExpenseUtility},
	{primary: "Food and Drink", nameContains: "sea-tac", category: domain.ExpenseVehicle},
	{primary: "Food and Drink", nameContains: "drinkpod", category: domain.ExpenseShopping},
	{primary: "Food and Drink", nameContains: "soundsonline", category: domain.ExpensePersonal},
	{primary: "Food and Drink", category: domain.ExpenseMeal},

	// Interest
	{primary: "Interest", category: domain.ExpenseSpecial},

	// Payment
	{primary: "Payment", nameContains: "stevens pass", category: domain.ExpenseRecreation},
	{primary: "Payment", category: domain.ExpenseSpecial},

	// Recreation
	{primary: "Recreation", category: domain.ExpenseRecreation},

	// Service
	{primary: "Service", nameContains: "wirebarley", category: domain.ExpenseSpecial},
	{primary: "Service", nameContains: "hand & stone", category: domain.ExpenseRecreation},
	{primary: "Service", nameContains: "netflix", category: domain.ExpenseRecreation},
	{primary: "Service", nameContains: "zoom management", category: domain.ExpenseOthers},
	{primary: "Service", nameContains: "splice com", category: domain.ExpensePersonal},
	{primary: "Service", secondary: "Financial", nameContains: "minol usa", category: domain.ExpenseUtility},
	{primary: "Service", secondary: "Financial", category: domain.ExpenseSpecial},
	{primary: "Service", secondary: "Business Services", nameContains: "minol usa", category: domain.ExpenseUtility},
	{primary: "Service", secondary: "Business Services", category: domain.ExpenseSpecial},
	{primary: "Service", secondary: "Personal Care", category: domain.ExpenseShopping},
	{primary: "Service", secondary: "Travel Agents and Tour Operators", category: domain.ExpenseRecreation},
	{primary: "Service", secondary: "Food and Beverage", category: domain.ExpenseMeal},
	{primary: "Service", secondary: "Insurance", nameContains: "geico", category: domain.ExpenseVehicle},
	{primary: "Service", secondary: "Insurance", nameContains: "metromile", category: domain.ExpenseVehicle},
	{primary: "Service", secondary: "Insurance", category: domain.ExpenseUtility},
	{primary: "Service", secondary: "Photography", nameContains: "the summit at sno", category: domain.ExpenseRecreation},
	{primary: "Service", secondary: "Photography", category: domain.ExpenseUtility},
	{primary: "Service", secondary: "Automotive", category: domain.ExpenseVehicle},
	{primary: "Service", category: domain.ExpenseUtility},

	// Shops
	{primary: "Shops", nameContains: "edipayment", category: domain.ExpenseSpecial},
	{primary: "Shops", nameContains: "minol usa", category: domain.ExpenseUtility},
	{primary: "Shops", nameContains: "adsense", category: domain.ExpenseSpecial},
	{primary: "Shops", secondary: "Food and Beverage Store", nameContains: "chateau ste mich winer", category: domain.ExpenseGrocery},
	{primary: "Shops", secondary: "Food and Beverage Store", nameContains: "ben franklin crafts", category: domain.ExpenseShopping},
	{primary: "Shops", secondary: "Food and Beverage Store", category: domain.ExpenseMeal},
	{primary: "Shops", secondary: "Convenience Stores", category: domain.ExpenseGrocery},
	{primary: "Shops", secondary: "Department Stores", nameEquals: "target", category: domain.ExpenseGrocery},
	{primary: "Shops", secondary: "Supermarkets and Groceries", category: domain.ExpenseGrocery},
	{primary: "Shops", secondary: "Warehouses and Wholesale Stores", category: domain.ExpenseGrocery},
	{primary: "Shops", secondary: "Pharmacies", category: domain.ExpenseOthers},
	{primary: "Shops", secondary: "Automotive", tertiary: "Car Dealers and Leasing", category: domain.ExpenseSpecial},
	{primary: "Shops", secondary: "Automotive", category: domain.ExpenseVehicle},
	{primary: "Shops", secondary: "Musical Instruments", category: domain.ExpenseRecreation},
	{primary: "Shops", secondary: "Music, Video and DVD", category: domain.ExpenseRecreation},
	{primary: "Shops", category: domain.ExpenseShopping},

	// Tax
	{primary: "Tax", category: domain.ExpenseSpecial},

	// Transfer
	{primary: "Transfer", nameContains: "ironsteak redmond", category: domain.ExpenseMeal},
	{primary: "Transfer", secondary: "Credit", category: domain.ExpenseSpecial},
	{primary: "Transfer", secondary: "Deposit", category: domain.ExpenseSpecial},
	{primary: "Transfer", secondary: "Internal Account Transfer", category: domain.ExpenseSpecial},
	{primary: "Transfer", secondary: "Withdrawal", category: domain.ExpenseSpecial},
	{primary: "Transfer", secondary: "Wire", category: domain.ExpenseSpecial},
	{primary: "Transfer", secondary: "Payroll", category: domain.ExpenseSpecial},
	{primary: "Transfer", secondary: "Debit", nameContains: "minol usa", category: domain.ExpenseUtility},
	{primary: "Transfer", secondary: "Debit", category: domain.ExpenseSpecial},
	{primary: "Transfer", secondary: "Third Party", tertiary: "Venmo", category: domain.ExpenseOthers},
	{primary: "Transfer", category: domain.ExpenseShopping},

	// Travel
	{primary: "Travel", nameContains: "h-mart", category: domain.ExpenseGrocery},
	{primary: "Travel", secondary: "Airlines and Aviation Services", category: domain.ExpenseRecreation},
	{primary: "Travel", secondary: "Lodging", category: domain.ExpenseRecreation},
	{primary: "Travel", category: domain.ExpenseVehicle},
}

// noteRule annotates a (category, merchant substring) pair with a fixed
// human-readable note.
type noteRule struct {
	category     domain.ExpenseCategory
	nameContains string
	note         string
}

var noteRules = []noteRule{
	{domain.ExpenseUtility, "minol usa", "Water, Sewer, Storm & Trash"},
	{domain.ExpenseUtility, "vesta *at&t", "Telecommunication"},
	{domain.ExpenseUtility, "comcast", "Internet"},
	{domain.ExpenseUtility, "puget sound", "Electricity"},

	{domain.ExpenseVehicle, "geico", "Auto Insurance"},
	{domain.ExpenseVehicle, "redmond tire pros", "Engine oil replacement"},

	{domain.ExpenseSpecial, "edipayment", "Paycheck"},
	{domain.ExpenseSpecial, "auto lease", "Auto Lease"},
	{domain.ExpenseSpecial, "toyota financial", "Auto Lease"},
	{domain.ExpenseSpecial, "microsoft co entr", "Microsoft Paycheck"},
}
