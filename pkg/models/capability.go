package models

// CapabilitySet is the fixed set of coarse capabilities a role maps to.
// It is produced once per request by the permission service and threaded
// explicitly into state-machine transitions, never read from ambient state.
type CapabilitySet struct {
	HasAppAccess         bool `json:"has_app_access" yaml:"has_app_access"`
	CanCreateRequests    bool `json:"can_create_requests" yaml:"can_create_requests"`
	CanApproveGlossary   bool `json:"can_approve_glossary" yaml:"can_approve_glossary"`
	CanApproveDataAccess bool `json:"can_approve_data_access" yaml:"can_approve_data_access"`
	CanManageRoles       bool `json:"can_manage_roles" yaml:"can_manage_roles"`
}

// RoleCapabilities binds a role name to its capability set.
type RoleCapabilities struct {
	Role string `json:"role"`
	CapabilitySet `yaml:",inline"`
}
