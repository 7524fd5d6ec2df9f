package model

type Event interface{ Type() string }

type ProductCreated struct {
	ProductID string
	Name      string
}

func (e ProductCreated) Type() string { return "ProductCreated" }

type ProductUpdated struct {
	ProductID string
}

func (e ProductUpdated) Type() string { return "ProductUpdated" }

type ProductDeleted struct {
	ProductID string
}

func (e ProductDeleted) Type() string { return "ProductDeleted" }

type ProductStockChanged struct {
	ProductID    string
	Movement     MovementType
	ChangeAmount int // positive on purchase, negative on consumption or discard
	NewQuantity  int
}

func (e ProductStockChanged) Type() string { return "ProductStockChanged" }

type TemplateItemChanged struct {
	ProductID     string
	IdealQuantity int
	Priority      Priority
}

func (e TemplateItemChanged) Type() string { return "TemplateItemChanged" }

type TemplateItemRemoved struct {
	ProductID string
}

func (e TemplateItemRemoved) Type() string { return "TemplateItemRemoved" }
