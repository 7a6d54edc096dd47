/**
 * @description
 * Payment link generation for paychecks. Builds the bank.gov.ua QR payment
 * URL defined by the National Bank of Ukraine
 * (https://bank.gov.ua/admin_uploads/law/01022021_11.pdf?v=4): a BCD/002
 * payload encoded as Windows-1251 and wrapped in URL-safe base64 without
 * padding.
 */
package app

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
)

const paymentLinkBase = "https://bank.gov.ua/qr/"

// GeneratePaymentLink builds a payment URL for the given receiver account,
// amount (in kopiykas), and comment.
func GeneratePaymentLink(account *domain.Account, amount int64, comment string) (string, error) {
	payload := fmt.Sprintf(
		"BCD\n"+ // service code
			"002\n"+ // version
			"2\n"+ // encoding: 1 - UTF-8, 2 - Windows-1251
			"UCT\n"+ // function code: "Ukrainian Credit Transfer"
			"\n"+ // BIC (not used)
			"%s\n"+ // receiver name
			"%s\n"+ // IBAN
			"UAH%.2f\n"+ // amount
			"%s\n"+ // receiver tax id
			"\n"+ // RFU (reserved for future use)
			"\n"+ // reference to RFU
			"%s\n", // comment
		account.Name,
		account.IBAN,
		float64(amount)/100,
		account.EDRPOU,
		comment,
	)

	encoded, err := charmap.Windows1251.NewEncoder().String(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payment payload: %w", err)
	}

	return paymentLinkBase + base64.RawURLEncoding.EncodeToString([]byte(encoded)), nil
}

// paycheckPayURL builds the payment link for a paycheck, embedding the
// correlation token (and group name, when known) into the link comment.
func paycheckPayURL(account *domain.Account, p *domain.Paycheck, groupName string) (string, error) {
	comment := EncodePaycheckComment(p.Comment, groupName, p.ID)
	return GeneratePaymentLink(account, p.Amount, comment)
}
