package inventory

import "fmt"

// ChangeType 库存变动类型
type ChangeType string

const (
	ChangeImport     ChangeType = "import"
	ChangeSale       ChangeType = "sale"
	ChangeReturn     ChangeType = "return"
	ChangeCancel     ChangeType = "cancel"
	ChangeAdjustment ChangeType = "adjustment"
)

// ReferenceType 触发变动的业务实体类型
type ReferenceType string

const (
	ReferenceInvoice       ReferenceType = "invoice"
	ReferenceOrder         ReferenceType = "order"
	ReferenceProductReturn ReferenceType = "product_return"
	ReferenceManual        ReferenceType = "manual"
)

// Reason explains why a stock quantity changed. The set of reasons is
// closed: values can only be built through the constructors below, each of
// which pins its change type to the matching reference type.
type Reason struct {
	changeType    ChangeType
	referenceType ReferenceType
	referenceID   string
}

// ReasonImport 进货单入库
func ReasonImport(invoiceID string) Reason {
	return Reason{changeType: ChangeImport, referenceType: ReferenceInvoice, referenceID: invoiceID}
}

// ReasonSale 订单出库
func ReasonSale(orderID string) Reason {
	return Reason{changeType: ChangeSale, referenceType: ReferenceOrder, referenceID: orderID}
}

// ReasonCancel 订单取消回补
func ReasonCancel(orderID string) Reason {
	return Reason{changeType: ChangeCancel, referenceType: ReferenceOrder, referenceID: orderID}
}

// ReasonReturn 退货完成回补
func ReasonReturn(returnID string) Reason {
	return Reason{changeType: ChangeReturn, referenceType: ReferenceProductReturn, referenceID: returnID}
}

// ReasonAdjustment 人工调整
func ReasonAdjustment() Reason {
	return Reason{changeType: ChangeAdjustment, referenceType: ReferenceManual}
}

var allowedReferences = map[ChangeType]ReferenceType{
	ChangeImport:     ReferenceInvoice,
	ChangeSale:       ReferenceOrder,
	ChangeCancel:     ReferenceOrder,
	ChangeReturn:     ReferenceProductReturn,
	ChangeAdjustment: ReferenceManual,
}

// RebuildReason reconstructs a Reason from stored columns.
// ⚠️ Repository use only.
func RebuildReason(changeType, referenceType, referenceID string) (Reason, error) {
	want, ok := allowedReferences[ChangeType(changeType)]
	if !ok || want != ReferenceType(referenceType) {
		return Reason{}, fmt.Errorf("%w: %s/%s", ErrInvalidReason, changeType, referenceType)
	}
	return Reason{
		changeType:    ChangeType(changeType),
		referenceType: ReferenceType(referenceType),
		referenceID:   referenceID,
	}, nil
}

func (r Reason) ChangeType() ChangeType       { return r.changeType }
func (r Reason) ReferenceType() ReferenceType { return r.referenceType }
func (r Reason) ReferenceID() string          { return r.referenceID }

// IsZero reports whether the reason was built outside the constructors.
func (r Reason) IsZero() bool { return r.changeType == "" }

// Entry is one requested ledger movement.
type Entry struct {
	ProductID string
	Change    int
	Reason    Reason
	Note      string
}
