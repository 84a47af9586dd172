package dto

type GrantRequest struct {
	Module string `json:"module" validate:"required,max=60"`
	Action string `json:"action" validate:"required,max=60"`
}

type CreateGroupRequest struct {
	Name        string  `json:"name"        validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

type SetPermissionsRequest struct {
	Permissions []GrantRequest `json:"permissions" validate:"dive"`
}

type AssignGroupRequest struct {
	GroupID *string `json:"group_id" validate:"omitempty,uuid"`
}

type GroupResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Permissions []GrantRequest `json:"permissions"`
}
