package domain

// ClientType distinguishes company clients from individuals.
type ClientType string

const (
	ClientCompany    ClientType = "empresa"
	ClientIndividual ClientType = "particular"
)

// Client is the customer a task is performed for.
type Client struct {
	ID          int        `json:"id"`
	Name        string     `json:"nombre"`
	Type        ClientType `json:"tipo"`
	CompanyName string     `json:"nombre_empresa,omitempty"`
	Phone       string     `json:"telefono,omitempty"`
	Email       string     `json:"email,omitempty"`
	AdminEmail  string     `json:"administrador_email,omitempty"`
	Description string     `json:"descripcion,omitempty"`
}

// Address is a service location belonging to a client.
type Address struct {
	ID       int    `json:"id"`
	ClientID int    `json:"cliente_id"`
	Full     string `json:"direccion_completa"`
	City     string `json:"ciudad"`
	Notes    string `json:"notas,omitempty"`
}
