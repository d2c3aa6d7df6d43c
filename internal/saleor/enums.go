package saleor

import "sort"

// Permission is a Saleor app permission code, e.g. "MANAGE_ORDERS".
type Permission string

// Valid reports whether p is a permission Saleor recognizes.
func (p Permission) Valid() bool {
	_, ok := knownPermissions[string(p)]
	return ok
}

// ExtensionMount is the dashboard location an app extension attaches to.
type ExtensionMount string

func (m ExtensionMount) Valid() bool {
	_, ok := knownExtensionMounts[string(m)]
	return ok
}

// ExtensionTarget selects how the dashboard opens an extension.
type ExtensionTarget string

func (t ExtensionTarget) Valid() bool {
	_, ok := knownExtensionTargets[string(t)]
	return ok
}

// AsyncEvent is an asynchronous webhook event type.
type AsyncEvent string

func (e AsyncEvent) Valid() bool {
	_, ok := knownAsyncEvents[string(e)]
	return ok
}

// SyncEvent is a synchronous webhook event type.
type SyncEvent string

func (e SyncEvent) Valid() bool {
	_, ok := knownSyncEvents[string(e)]
	return ok
}

const (
	PermissionManageUsers  Permission = "MANAGE_USERS"
	PermissionManageStaff  Permission = "MANAGE_STAFF"
	PermissionManageOrders Permission = "MANAGE_ORDERS"

	TargetPopup   ExtensionTarget = "POPUP"
	TargetAppPage ExtensionTarget = "APP_PAGE"
)

// Permissions lists every known permission code, sorted.
func Permissions() []string { return keys(knownPermissions) }

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var knownPermissions = set(
	"MANAGE_USERS",
	"MANAGE_STAFF",
	"IMPERSONATE_USER",
	"MANAGE_APPS",
	"MANAGE_OBSERVABILITY",
	"MANAGE_CHECKOUTS",
	"HANDLE_CHECKOUTS",
	"HANDLE_TAXES",
	"MANAGE_TAXES",
	"MANAGE_CHANNELS",
	"MANAGE_DISCOUNTS",
	"MANAGE_GIFT_CARD",
	"MANAGE_MENUS",
	"MANAGE_ORDERS",
	"MANAGE_ORDERS_IMPORT",
	"MANAGE_PAGES",
	"MANAGE_PAGE_TYPES_AND_ATTRIBUTES",
	"HANDLE_PAYMENTS",
	"MANAGE_PLUGINS",
	"MANAGE_PRODUCTS",
	"MANAGE_PRODUCT_TYPES_AND_ATTRIBUTES",
	"MANAGE_SHIPPING",
	"MANAGE_SETTINGS",
	"MANAGE_TRANSLATIONS",
)

var knownExtensionMounts = set(
	"CATEGORY_OVERVIEW_CREATE",
	"CATEGORY_OVERVIEW_MORE_ACTIONS",
	"CATEGORY_DETAILS_MORE_ACTIONS",
	"COLLECTION_OVERVIEW_CREATE",
	"COLLECTION_OVERVIEW_MORE_ACTIONS",
	"COLLECTION_DETAILS_MORE_ACTIONS",
	"CUSTOMER_OVERVIEW_CREATE",
	"CUSTOMER_OVERVIEW_MORE_ACTIONS",
	"CUSTOMER_DETAILS_MORE_ACTIONS",
	"DISCOUNT_OVERVIEW_CREATE",
	"DISCOUNT_OVERVIEW_MORE_ACTIONS",
	"DISCOUNT_DETAILS_MORE_ACTIONS",
	"DRAFT_ORDER_OVERVIEW_CREATE",
	"DRAFT_ORDER_OVERVIEW_MORE_ACTIONS",
	"DRAFT_ORDER_DETAILS_MORE_ACTIONS",
	"GIFT_CARD_OVERVIEW_CREATE",
	"GIFT_CARD_OVERVIEW_MORE_ACTIONS",
	"GIFT_CARD_DETAILS_MORE_ACTIONS",
	"NAVIGATION_CATALOG",
	"NAVIGATION_ORDERS",
	"NAVIGATION_CUSTOMERS",
	"NAVIGATION_DISCOUNTS",
	"NAVIGATION_TRANSLATIONS",
	"NAVIGATION_PAGES",
	"ORDER_DETAILS_MORE_ACTIONS",
	"ORDER_OVERVIEW_CREATE",
	"ORDER_OVERVIEW_MORE_ACTIONS",
	"PAGE_OVERVIEW_CREATE",
	"PAGE_OVERVIEW_MORE_ACTIONS",
	"PAGE_DETAILS_MORE_ACTIONS",
	"PRODUCT_DETAILS_MORE_ACTIONS",
	"PRODUCT_OVERVIEW_CREATE",
	"PRODUCT_OVERVIEW_MORE_ACTIONS",
	"VOUCHER_OVERVIEW_CREATE",
	"VOUCHER_OVERVIEW_MORE_ACTIONS",
	"VOUCHER_DETAILS_MORE_ACTIONS",
)

var knownExtensionTargets = set(
	"POPUP",
	"APP_PAGE",
	"NEW_TAB",
	"WIDGET",
)

var knownAsyncEvents = set(
	"ACCOUNT_CONFIRMATION_REQUESTED",
	"ACCOUNT_CHANGE_EMAIL_REQUESTED",
	"ACCOUNT_EMAIL_CHANGED",
	"ACCOUNT_SET_PASSWORD_REQUESTED",
	"ACCOUNT_CONFIRMED",
	"ACCOUNT_DELETE_REQUESTED",
	"ACCOUNT_DELETED",
	"ADDRESS_CREATED",
	"ADDRESS_UPDATED",
	"ADDRESS_DELETED",
	"APP_INSTALLED",
	"APP_UPDATED",
	"APP_DELETED",
	"APP_STATUS_CHANGED",
	"ATTRIBUTE_CREATED",
	"ATTRIBUTE_UPDATED",
	"ATTRIBUTE_DELETED",
	"ATTRIBUTE_VALUE_CREATED",
	"ATTRIBUTE_VALUE_UPDATED",
	"ATTRIBUTE_VALUE_DELETED",
	"CATEGORY_CREATED",
	"CATEGORY_UPDATED",
	"CATEGORY_DELETED",
	"CHANNEL_CREATED",
	"CHANNEL_UPDATED",
	"CHANNEL_DELETED",
	"CHANNEL_STATUS_CHANGED",
	"CHANNEL_METADATA_UPDATED",
	"GIFT_CARD_CREATED",
	"GIFT_CARD_UPDATED",
	"GIFT_CARD_DELETED",
	"GIFT_CARD_SENT",
	"GIFT_CARD_STATUS_CHANGED",
	"GIFT_CARD_METADATA_UPDATED",
	"GIFT_CARD_EXPORT_COMPLETED",
	"MENU_CREATED",
	"MENU_UPDATED",
	"MENU_DELETED",
	"MENU_ITEM_CREATED",
	"MENU_ITEM_UPDATED",
	"MENU_ITEM_DELETED",
	"ORDER_CREATED",
	"ORDER_CONFIRMED",
	"ORDER_PAID",
	"ORDER_FULLY_PAID",
	"ORDER_REFUNDED",
	"ORDER_FULLY_REFUNDED",
	"ORDER_UPDATED",
	"ORDER_CANCELLED",
	"ORDER_EXPIRED",
	"ORDER_FULFILLED",
	"ORDER_METADATA_UPDATED",
	"ORDER_BULK_CREATED",
	"DRAFT_ORDER_CREATED",
	"DRAFT_ORDER_UPDATED",
	"DRAFT_ORDER_DELETED",
	"SALE_CREATED",
	"SALE_UPDATED",
	"SALE_DELETED",
	"SALE_TOGGLE",
	"PROMOTION_CREATED",
	"PROMOTION_UPDATED",
	"PROMOTION_DELETED",
	"PROMOTION_STARTED",
	"PROMOTION_ENDED",
	"INVOICE_REQUESTED",
	"INVOICE_DELETED",
	"INVOICE_SENT",
	"CUSTOMER_CREATED",
	"CUSTOMER_UPDATED",
	"CUSTOMER_DELETED",
	"CUSTOMER_METADATA_UPDATED",
	"COLLECTION_CREATED",
	"COLLECTION_UPDATED",
	"COLLECTION_DELETED",
	"COLLECTION_METADATA_UPDATED",
	"PRODUCT_CREATED",
	"PRODUCT_UPDATED",
	"PRODUCT_DELETED",
	"PRODUCT_METADATA_UPDATED",
	"PRODUCT_EXPORT_COMPLETED",
	"PRODUCT_MEDIA_CREATED",
	"PRODUCT_MEDIA_UPDATED",
	"PRODUCT_MEDIA_DELETED",
	"PRODUCT_VARIANT_CREATED",
	"PRODUCT_VARIANT_UPDATED",
	"PRODUCT_VARIANT_DELETED",
	"PRODUCT_VARIANT_OUT_OF_STOCK",
	"PRODUCT_VARIANT_BACK_IN_STOCK",
	"PRODUCT_VARIANT_STOCK_UPDATED",
	"PRODUCT_VARIANT_METADATA_UPDATED",
	"CHECKOUT_CREATED",
	"CHECKOUT_UPDATED",
	"CHECKOUT_FULLY_PAID",
	"CHECKOUT_METADATA_UPDATED",
	"FULFILLMENT_CREATED",
	"FULFILLMENT_CANCELED",
	"FULFILLMENT_APPROVED",
	"FULFILLMENT_METADATA_UPDATED",
	"NOTIFY_USER",
	"PAGE_CREATED",
	"PAGE_UPDATED",
	"PAGE_DELETED",
	"PAGE_TYPE_CREATED",
	"PAGE_TYPE_UPDATED",
	"PAGE_TYPE_DELETED",
	"PERMISSION_GROUP_CREATED",
	"PERMISSION_GROUP_UPDATED",
	"PERMISSION_GROUP_DELETED",
	"SHIPPING_PRICE_CREATED",
	"SHIPPING_PRICE_UPDATED",
	"SHIPPING_PRICE_DELETED",
	"SHIPPING_ZONE_CREATED",
	"SHIPPING_ZONE_UPDATED",
	"SHIPPING_ZONE_DELETED",
	"SHIPPING_ZONE_METADATA_UPDATED",
	"STAFF_CREATED",
	"STAFF_UPDATED",
	"STAFF_DELETED",
	"STAFF_SET_PASSWORD_REQUESTED",
	"TRANSACTION_ITEM_METADATA_UPDATED",
	"TRANSLATION_CREATED",
	"TRANSLATION_UPDATED",
	"WAREHOUSE_CREATED",
	"WAREHOUSE_UPDATED",
	"WAREHOUSE_DELETED",
	"WAREHOUSE_METADATA_UPDATED",
	"VOUCHER_CREATED",
	"VOUCHER_UPDATED",
	"VOUCHER_DELETED",
	"VOUCHER_CODES_CREATED",
	"VOUCHER_CODES_DELETED",
	"VOUCHER_METADATA_UPDATED",
	"VOUCHER_CODE_EXPORT_COMPLETED",
	"OBSERVABILITY",
	"THUMBNAIL_CREATED",
)

var knownSyncEvents = set(
	"CHECKOUT_CALCULATE_TAXES",
	"ORDER_CALCULATE_TAXES",
	"CHECKOUT_FILTER_SHIPPING_METHODS",
	"ORDER_FILTER_SHIPPING_METHODS",
	"SHIPPING_LIST_METHODS_FOR_CHECKOUT",
	"PAYMENT_AUTHORIZE",
	"PAYMENT_CAPTURE",
	"PAYMENT_CONFIRM",
	"PAYMENT_LIST_GATEWAYS",
	"PAYMENT_PROCESS",
	"PAYMENT_REFUND",
	"PAYMENT_VOID",
	"PAYMENT_GATEWAY_INITIALIZE_SESSION",
	"PAYMENT_METHOD_INITIALIZE_TOKENIZATION_SESSION",
	"PAYMENT_METHOD_PROCESS_TOKENIZATION_SESSION",
	"STORED_PAYMENT_METHOD_REQUEST_DELETE",
	"TRANSACTION_CHARGE_REQUESTED",
	"TRANSACTION_REFUND_REQUESTED",
	"TRANSACTION_CANCELATION_REQUESTED",
	"TRANSACTION_INITIALIZE_SESSION",
	"TRANSACTION_PROCESS_SESSION",
	"LIST_STORED_PAYMENT_METHODS",
)
