package commerce

import "encoding/json"

// Cart is the raw GET /cart payload.
type Cart struct {
	CartID     json.Number  `json:"cart_id,omitempty"`
	TotalPrice Number       `json:"total_price,omitempty"`
	CartDetail []CartDetail `json:"cart_detail,omitempty"`

	// older deployments return the lines under "details" with the variant as "variant"
	Details []CartDetail `json:"details,omitempty"`
}

// Lines returns whichever detail list the backend populated.
func (c *Cart) Lines() []CartDetail {
	if c == nil {
		return nil
	}
	if len(c.CartDetail) > 0 {
		return c.CartDetail
	}
	return c.Details
}

// Valid reports whether the payload identifies a cart.
func (c *Cart) Valid() bool {
	return c != nil && c.CartID.String() != ""
}

// CartDetail is one raw cart line.
type CartDetail struct {
	CartDetailID    json.Number `json:"cart_detail_id,omitempty"`
	Quantity        Number      `json:"quantity,omitempty"`
	SubPrice        Number      `json:"sub_price,omitempty"`
	ProductVariants *Variant    `json:"product_variants,omitempty"`
	Variant         *Variant    `json:"variant,omitempty"`
}

// VariantRecord returns the nested variant regardless of which key carried it.
func (d CartDetail) VariantRecord() *Variant {
	if d.ProductVariants != nil {
		return d.ProductVariants
	}
	return d.Variant
}

// Variant is a raw product variant as nested in cart lines.
type Variant struct {
	VariantID     json.Number    `json:"variant_id,omitempty"`
	ProductID     json.Number    `json:"product_id,omitempty"`
	SKU           string         `json:"sku,omitempty"`
	Barcode       string         `json:"barcode,omitempty"`
	BasePrice     Number         `json:"base_price,omitempty"`
	Price         Number         `json:"price,omitempty"`
	SizeID        Number         `json:"size_id,omitempty"`
	Attribute     map[string]any `json:"attribute,omitempty"`
	VariantAssets []Asset        `json:"variant_assets,omitempty"`
	Product       *ProductRef    `json:"product,omitempty"`

	// order lines nest the product as "products"
	Products *ProductRef `json:"products,omitempty"`
}

// ProductSummary returns the nested product regardless of which key carried it.
func (v *Variant) ProductSummary() *ProductRef {
	if v == nil {
		return nil
	}
	if v.Product != nil {
		return v.Product
	}
	return v.Products
}

// ProductRef is the product summary some endpoints nest inside a variant.
type ProductRef struct {
	ProductID   json.Number `json:"product_id,omitempty"`
	ProductName string      `json:"product_name,omitempty"`
	Slug        string      `json:"slug,omitempty"`
}

// Asset is a raw variant image record.
type Asset struct {
	URL       string `json:"url,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// Link returns the populated URL field.
func (a Asset) Link() string {
	if a.URL != "" {
		return a.URL
	}
	return a.ImageURL
}

// Voucher is a raw record from GET /vouchers/active/list.
type Voucher struct {
	VoucherID     json.Number `json:"voucher_id,omitempty"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	DiscountType  string      `json:"discount_type"`
	DiscountValue Number      `json:"discount_value"`
	MaxDiscount   Number      `json:"max_discount,omitempty"`
	MinOrderValue Number      `json:"min_order_value,omitempty"`
	StartDate     string      `json:"start_date,omitempty"`
	EndDate       string      `json:"end_date,omitempty"`
	IsActive      *bool       `json:"is_active,omitempty"`
	Status        *bool       `json:"status,omitempty"`
}

// ProductRow is one row of GET /products: a product flattened with one variant.
type ProductRow struct {
	ProductID   json.Number `json:"product_id"`
	ProductName string      `json:"product_name"`
	Brand       *Brand      `json:"brand,omitempty"`
	Category    *Category   `json:"category,omitempty"`
	Status      any         `json:"status,omitempty"`
	VariantID   json.Number `json:"variant_id,omitempty"`
	SKU         string      `json:"sku"`
	Price       Number      `json:"price"`
	Size        string      `json:"size,omitempty"`
	Color       string      `json:"color,omitempty"`
	Image       string      `json:"image,omitempty"`
}

// ProductDetail is the GET /products/{id} payload.
type ProductDetail struct {
	ProductID   json.Number     `json:"product_id"`
	ProductName string          `json:"product_name"`
	Brand       *Brand          `json:"brand,omitempty"`
	Category    *Category       `json:"category,omitempty"`
	Variants    []ProductOption `json:"variants,omitempty"`
}

// ProductOption is a variant listed under a product detail.
type ProductOption struct {
	VariantID json.Number `json:"variant_id"`
	SKU       string      `json:"sku"`
	Price     Number      `json:"price"`
	Size      string      `json:"size,omitempty"`
	Color     string      `json:"color,omitempty"`
	Image     string      `json:"image,omitempty"`
}

type Brand struct {
	BrandID   json.Number `json:"brand_id,omitempty"`
	BrandName string      `json:"brand_name,omitempty"`
}

type Category struct {
	CategoryID   json.Number `json:"category_id,omitempty"`
	CategoryName string      `json:"category_name,omitempty"`
}

// Address is a raw shipping address from GET /addresses.
type Address struct {
	AddressID      json.Number `json:"address_id"`
	ConsigneeName  string      `json:"consignee_name,omitempty"`
	ConsigneePhone string      `json:"consignee_phone,omitempty"`
	HouseNum       string      `json:"house_num,omitempty"`
	Street         string      `json:"street,omitempty"`
	Ward           string      `json:"ward,omitempty"`
	District       string      `json:"district,omitempty"`
	Province       string      `json:"province,omitempty"`
	IsDefault      bool        `json:"is_default"`
	Status         bool        `json:"status"`
}

// OrderItem is one line of an order request.
type OrderItem struct {
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
}

// OrderRequest is the POST /orders body.
type OrderRequest struct {
	CustomerID    int64       `json:"customerId"`
	AddressID     int64       `json:"addressId"`
	Items         []OrderItem `json:"items"`
	PaymentMethod string      `json:"paymentMethod"`
	VoucherCode   *string     `json:"voucherCode"`
}

// OrderResponse is the POST /orders reply. QRURL is set for VNPay, PayURL for MoMo.
type OrderResponse struct {
	Order struct {
		OrderID json.Number `json:"order_id"`
		Status  string      `json:"status,omitempty"`
	} `json:"order"`
	QRURL   string `json:"qrUrl,omitempty"`
	PayURL  string `json:"payUrl,omitempty"`
	Message string `json:"message,omitempty"`
}

// AddressInput is the POST /addresses body.
type AddressInput struct {
	ConsigneeName  string `json:"consignee_name"`
	ConsigneePhone string `json:"consignee_phone"`
	Province       string `json:"province"`
	District       string `json:"district"`
	Ward           string `json:"ward"`
	Street         string `json:"street"`
	HouseNum       string `json:"house_num"`
	IsDefault      bool   `json:"is_default"`
}

// Order is a raw order from GET /orders/my-orders or GET /orders/{id}. The list
// nests the recipient as "addresses" and lines as "order_detail"; the detail
// endpoint uses "shipping_address" and "order_items".
type Order struct {
	OrderID         json.Number      `json:"order_id"`
	OrderStatus     string           `json:"order_status,omitempty"`
	PaymentStatus   string           `json:"payment_status,omitempty"`
	ShippingFee     Number           `json:"shipping_fee,omitempty"`
	Tax             Number           `json:"tax,omitempty"`
	TotalPrice      Number           `json:"total_price,omitempty"`
	CreatedAt       string           `json:"created_at,omitempty"`
	Addresses       *Address         `json:"addresses,omitempty"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	OrderDetail     []OrderDetail    `json:"order_detail,omitempty"`
	OrderItems      []OrderDetail    `json:"order_items,omitempty"`
}

// Lines returns whichever line list the backend populated.
func (o *Order) Lines() []OrderDetail {
	if o == nil {
		return nil
	}
	if len(o.OrderDetail) > 0 {
		return o.OrderDetail
	}
	return o.OrderItems
}

// OrderDetail is one raw order line.
type OrderDetail struct {
	Quantity        Number   `json:"quantity,omitempty"`
	TotalPrice      Number   `json:"total_price,omitempty"`
	SubPrice        Number   `json:"sub_price,omitempty"`
	ProductVariants *Variant `json:"product_variants,omitempty"`
}

// CartDetail reshapes the order line so it normalizes like a cart line.
func (d OrderDetail) CartDetail() CartDetail {
	sub := d.TotalPrice
	if !sub.Present() {
		sub = d.SubPrice
	}
	return CartDetail{Quantity: d.Quantity, SubPrice: sub, ProductVariants: d.ProductVariants}
}

// ShippingAddress is the recipient block of GET /orders/{id}.
type ShippingAddress struct {
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city,omitempty"`
}

// Payment is the POST /orders/{id}/pay reply.
type Payment struct {
	PaymentURL string `json:"paymentUrl,omitempty"`
	Message    string `json:"message,omitempty"`
}

// User is the GET /users/{id} payload.
type User struct {
	UserID    json.Number `json:"user_id,omitempty"`
	Username  string      `json:"username,omitempty"`
	Email     string      `json:"email,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	FullName  string      `json:"full_name,omitempty"`
	Customers *Customer   `json:"customers,omitempty"`
}

// Customer is the customer record nested under a user.
type Customer struct {
	CustomerID json.Number `json:"customer_id,omitempty"`
	Birthday   string      `json:"birthday,omitempty"`
	Gender     string      `json:"gender,omitempty"`
}

// ProfileUpdate is the PUT /users/profile body. Empty birthday and gender go out as null.
type ProfileUpdate struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Birthday *string `json:"birthday"`
	Gender   *string `json:"gender"`
}
