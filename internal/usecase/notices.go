package usecase

import (
	"fmt"

	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/utils"

	"github.com/google/uuid"
)

func visitNotice(v *entity.Visit, typ entity.NotificationType, audience entity.NotificationAudience, subject, body string) Notice {
	id := v.ID
	return Notice{
		Type:       typ,
		Audience:   audience,
		VisitID:    &id,
		CustomerID: v.CustomerID,
		StoreID:    v.StoreID,
		Subject:    subject,
		Body:       body,
	}
}

func slot(v *entity.Visit) string {
	return fmt.Sprintf("%s %s", v.ScheduledDate.Format(utils.DateLayout), v.ScheduledTime)
}

func missedNotice(v *entity.Visit, audience entity.NotificationAudience) Notice {
	if audience == entity.AudienceStore {
		return visitNotice(v, entity.NotificationVisitMissed, audience,
			"Visit marked as missed",
			fmt.Sprintf("The visit %s scheduled for %s was not checked in and has been marked as missed.", v.ID, slot(v)))
	}
	return visitNotice(v, entity.NotificationVisitMissed, audience,
		"We missed you",
		fmt.Sprintf("Your visit scheduled for %s was marked as missed. You can book a new visit any time.", slot(v)))
}

func missedWarningNotice(v *entity.Visit) Notice {
	return visitNotice(v, entity.NotificationVisitMissedWarning, entity.AudienceCustomer,
		"Are you still coming?",
		fmt.Sprintf("Your visit was scheduled for %s. Check in soon or it will be marked as missed.", slot(v)))
}

func cancelledNotice(v *entity.Visit, audience entity.NotificationAudience) Notice {
	reason := ""
	if v.CancellationReason != nil {
		reason = " Reason: " + *v.CancellationReason
	}
	if audience == entity.AudienceStore {
		return visitNotice(v, entity.NotificationVisitCancelled, audience,
			"Visit cancelled by customer",
			fmt.Sprintf("The visit %s scheduled for %s was cancelled by the customer.%s", v.ID, slot(v), reason))
	}
	return visitNotice(v, entity.NotificationVisitCancelled, audience,
		"Your visit was cancelled",
		fmt.Sprintf("Your visit scheduled for %s was cancelled by the store.%s", slot(v), reason))
}

func bulkCancelledStoreNotice(v *entity.Visit) Notice {
	return visitNotice(v, entity.NotificationBulkCancelled, entity.AudienceStore,
		"Visit cancelled by customer",
		fmt.Sprintf("The visit %s scheduled for %s was cancelled as part of a bulk cancellation.", v.ID, slot(v)))
}

func bulkCancelledCustomerNotice(customerID uuid.UUID, count int) Notice {
	return Notice{
		Type:       entity.NotificationBulkCancelled,
		Audience:   entity.AudienceCustomer,
		CustomerID: customerID,
		Subject:    "Your visits were cancelled",
		Body:       fmt.Sprintf("%d upcoming visit(s) were cancelled at your request.", count),
	}
}

func rescheduledNotice(v *entity.Visit) Notice {
	notes := ""
	if v.RescheduleNotes != nil {
		notes = " Notes: " + *v.RescheduleNotes
	}
	return visitNotice(v, entity.NotificationVisitRescheduled, entity.AudienceCustomer,
		"Your visit was rescheduled",
		fmt.Sprintf("Your visit has been moved to %s.%s", slot(v), notes))
}
