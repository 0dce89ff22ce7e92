package manifest

// Default returns the built-in TPCx-AI manifest.
func Default() Manifest {
	files := make([]File, 0, len(declaredFiles))
	for _, name := range declaredFiles {
		files = append(files, File{Name: name, Repair: name == "customer.csv"})
	}

	keys := make(map[string][]string, len(primaryKeys))
	for t, cols := range primaryKeys {
		keys[t] = append([]string(nil), cols...)
	}

	return Manifest{
		Partitions: []Partition{
			{Folder: "training", Schema: "train"},
			{Folder: "serving", Schema: "serve"},
			{Folder: "scoring", Schema: "score"},
		},
		Files:       files,
		PrimaryKeys: keys,
	}
}

var declaredFiles = []string{
	"conversation_audio.csv",
	"customer_images_meta.csv",
	"customer.csv",
	"failures.csv",
	"failures_labels.csv",
	"financial_account.csv",
	"financial_transactions.csv",
	"product.csv",
	"order.csv",
	"lineitem.csv",
	"marketplace.csv",
	"order_returns.csv",
	"productrating.csv",
	"review.psv",
	"review_labels.psv",
	"store_dept.csv",
	"conversation_audio_labels.csv",
	"customer_images_meta_labels.csv",
	"customer_labels.csv",
	"financial_transactions_labels.csv",
	"marketplace_labels.csv",
	"order_labels.csv",
	"productrating_labels.csv",
	"store_dept_labels.csv",
	"sales.csv",
}

// primaryKeys lists the tables known to carry duplicate keys in generated
// data. The "customer_image_meta_labels.csv" and "customer_image_meta" keys
// match no declared table and are kept as found.
var primaryKeys = map[string][]string{
	"financial_account":              {"fa_customer_sk"},
	"financial_transactions":         {"transactionID"},
	"financial_transactions_labels":  {"transactionID"},
	"customer_image_meta_labels.csv": {"img_filename"},
	"customer_labels.csv":            {"c_customer_sk"},
	"customer":                       {"c_customer_sk"},
	"order":                          {"o_order_id"},
	"product":                        {"p_product_id"},
	"customer_image_meta":            {"img_filename"},
	"product_reviews":                {"id"},
	"productrating":                  {"userID", "productID"},
	"productrating_labels":           {"userID", "productID"},
}
