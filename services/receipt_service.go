package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	config "github.com/wanderpal/tour_guide/configs"
	"github.com/wanderpal/tour_guide/models"
	"github.com/wanderpal/tour_guide/notifications"
)

const receiptTemplate = `<!DOCTYPE html>
<html>
<head><style>
body { font-family: Georgia, serif; margin: 48px; color: #222; }
h1 { border-bottom: 2px solid #222; padding-bottom: 8px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
td { padding: 8px 0; border-bottom: 1px solid #ddd; }
td:last-child { text-align: right; }
.footer { margin-top: 48px; font-size: 12px; color: #777; }
</style></head>
<body>
<h1>Tour Completion Receipt</h1>
<p>Issued {{.IssuedOn}}</p>
<table>
<tr><td>Booking</td><td>{{.BookingID}}</td></tr>
<tr><td>Destination</td><td>{{.Destination}}</td></tr>
<tr><td>Guide</td><td>{{.GuideName}}</td></tr>
<tr><td>Dates</td><td>{{.CheckIn}} to {{.CheckOut}}</td></tr>
<tr><td><b>Total Paid</b></td><td><b>{{.Currency}} {{printf "%.2f" .Amount}}</b></td></tr>
</table>
<p class="footer">Thank you for travelling with us.</p>
</body>
</html>`

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

// GenerateCompletionReceipt renders a PDF receipt for a completed booking,
// uploads it, and emails the link to the tourist. Runs detached from the
// completion transaction; any failure is logged and dropped.
func GenerateCompletionReceipt(booking models.Booking) {
	if booking.BookingStatus != StatusCompleted {
		return
	}

	guideName := "your guide"
	if booking.Guide != nil {
		guideName = booking.Guide.User.FullName
	}

	data := struct {
		IssuedOn    string
		BookingID   string
		Destination string
		GuideName   string
		CheckIn     string
		CheckOut    string
		Currency    string
		Amount      float64
	}{
		IssuedOn:    time.Now().Format("January 2, 2006"),
		BookingID:   booking.ID.String(),
		Destination: booking.Destination.Name,
		GuideName:   guideName,
		CheckIn:     booking.CheckIn.Format("Jan 2, 2006"),
		CheckOut:    booking.CheckOut.Format("Jan 2, 2006"),
		Currency:    booking.Currency,
		Amount:      booking.TotalAmount,
	}

	var rendered bytes.Buffer
	if err := receiptTmpl.Execute(&rendered, data); err != nil {
		log.Printf("🔥 Failed to render receipt HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(rendered.String())
	if err != nil {
		log.Printf("🔥 Failed to generate receipt PDF: %v", err)
		return
	}

	receiptURL, err := uploadReceipt(pdfBytes, booking.ID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload receipt: %v", err)
		return
	}

	notifications.SendEmail(
		booking.Tourist.FullName,
		booking.Tourist.Email,
		"Your Tour Receipt",
		fmt.Sprintf("<h1>Receipt</h1><p>Your tour is complete. You can download your receipt <a href='%s'>here</a>.</p>", receiptURL),
	)
	log.Printf("✅ Generated completion receipt for booking %s", booking.ID)
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReceipt(fileBytes []byte, bookingID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s_%s", bookingID, uuid.New().String()),
		Folder:       "tour_guide_receipts",
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
