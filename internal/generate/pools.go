package generate

// Data pools grounded on the field-name heuristic pools the original
// learner shipped with, trimmed to what the semantic types below actually
// need.
var (
	firstNames = []string{
		"Aarav", "Sophia", "Liam", "Aisha", "Mateo", "Yuki", "Oliver", "Mei",
		"Noah", "Zara", "Ethan", "Priya", "Lucas", "Sara", "Arjun", "Elena",
		"Kai", "Amara", "Leo", "Ananya", "James", "Luna", "Raj", "Isla",
		"Omar", "Chloe", "Ravi", "Hana", "Daniel", "Fatima",
	}
	lastNames = []string{
		"Patel", "Kim", "Garcia", "Chen", "Smith", "Muller", "Tanaka", "Singh",
		"Johnson", "Ali", "Williams", "Nakamura", "Brown", "Lee", "Wilson",
		"Kumar", "Silva", "Andersen", "Martinez", "Wang", "Taylor", "Gupta",
	}
	emailDomains = []string{
		"gmail.com", "outlook.com", "company.io", "example.org", "mail.dev",
		"proton.me", "fastmail.com", "hey.com", "icloud.com", "pm.me",
	}
	cities = []string{
		"San Francisco", "London", "Tokyo", "Mumbai", "Berlin", "Toronto",
		"Sydney", "Singapore", "Amsterdam", "Seoul", "Dubai", "Sao Paulo",
		"Stockholm", "Austin", "Barcelona", "Bangalore", "Paris", "New York",
	}
	countries = []string{
		"US", "GB", "JP", "IN", "DE", "CA", "AU", "SG", "NL", "KR",
	}
	statuses  = []string{"active", "pending", "inactive", "completed", "processing", "draft"}
	titles    = []string{
		"Getting Started with the API", "Quarterly Performance Report",
		"Project Update: Phase 2", "New Feature Announcement",
		"Infrastructure Migration Plan", "Release Notes v2.4",
	}
	tags = []string{
		"featured", "important", "beta", "stable", "experimental",
		"premium", "free", "popular", "trending", "new",
	}
	descriptions = []string{
		"A comprehensive overview of the latest updates and improvements.",
		"This resource provides detailed information about the service.",
		"Automatically generated content based on observed API patterns.",
		"Key insights derived from production traffic analysis.",
	}
	streets = []string{"Market St", "Main Ave", "Oak Ln", "Maple Dr", "Cedar Ct", "Park Rd"}
)
