package permissions

func init() {
	mustRegister(
		Definition{
			Name:        "VIEW_PETITION",
			Category:    "petitions",
			Description: "View petitions filed by the company",
		},
		Definition{
			Name:        "FILE_PETITION",
			Category:    "petitions",
			Description: "File new petitions on behalf of the company",
		},
		Definition{
			Name:        "EDIT_PETITION",
			Category:    "petitions",
			Description: "Edit petitions before submission",
		},
		Definition{
			Name:        "DELETE_PETITION",
			Category:    "petitions",
			Description: "Delete draft petitions",
		},
		Definition{
			Name:        "VIEW_DOCUMENTS",
			Category:    "documents",
			Description: "View supporting documents attached to cases",
		},
		Definition{
			Name:        "UPLOAD_DOCUMENTS",
			Category:    "documents",
			Description: "Upload supporting documents",
		},
		Definition{
			Name:        "VIEW_TEAM",
			Category:    "teams",
			Description: "View the company's team roster",
		},
		Definition{
			Name:        "MANAGE_TEAM",
			Category:    "teams",
			Description: "Invite and remove team members",
		},
		Definition{
			Name:        "VIEW_REPORTS",
			Category:    "reports",
			Description: "View company reporting dashboards",
		},
		Definition{
			Name:        "MANAGE_USERS",
			Category:    "administration",
			Description: "Administer user accounts within the company",
		},
		Definition{
			Name:        "MANAGE_PERMISSIONS",
			Category:    "administration",
			Description: "Administer roles, grants, and the permission cache",
		},
		Definition{
			Name:        "VIEW_BILLING",
			Category:    "billing",
			Description: "View invoices and billing history",
		},
		Definition{
			Name:        "MANAGE_BILLING",
			Category:    "billing",
			Description: "Update payment methods and manage subscriptions",
		},
	)
}
