package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/expensa/internal/catalog"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

func TestParsePriceList(t *testing.T) {
	type testCase struct {
		name    string
		content string
		want    []string
		wantErr bool
	}

	tests := []testCase{
		{
			name:    "Comma",
			content: "category,item,price\nSnacks,Samosa,12.50\nDrinks,Tea,\"1,015.00\"\n",
			want:    []string{"Snacks/Samosa/12.50", "Drinks/Tea/1015.00"},
		},
		{
			name: "SemicolonWithPreamble",
			content: "Canteen price list;2024\n\n" +
				"Categoria;Item;Preço\n" +
				"Snacks;Vada;10,00\n" +
				"Drinks;Coffee;1.020,50\n" +
				";;\n",
			want: []string{"Snacks/Vada/10.00", "Drinks/Coffee/1020.50"},
		},
		{
			name:    "HeaderAliases",
			content: "Category_Name,Item_Name,Item_Price\nSnacks,Puff,₹18\n",
			want:    []string{"Snacks/Puff/18.00"},
		},
		{
			name:    "MissingHeader",
			content: "foo,bar\n1,2\n",
			wantErr: true,
		},
		{
			name:    "BadPrice",
			content: "category,item,price\nSnacks,Samosa,cheap\n",
			wantErr: true,
		},
		{
			name:    "NegativePrice",
			content: "category,item,price\nSnacks,Samosa,-4\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := catalog.ParsePriceList(strings.NewReader(tt.content))

			if tt.wantErr {
				var verr *ledger.ValidationError
				assert.ErrorAs(t, err, &verr)

				return
			}

			require.NoError(t, err)

			got := make([]string, 0, len(rows))
			for _, r := range rows {
				got = append(got, r.Category+"/"+r.Item+"/"+r.Price.StringFixed(2))
			}

			assert.Equal(t, tt.want, got)
		})
	}
}
