package admin

const (
	fullName    = "u.first_name || ' ' || u.last_name"
	joinPatient = "JOIN users pu ON pu.id = c.patient_id"
	joinDoctor  = "JOIN users du ON du.id = c.doctor_id"
)

func text(param, expr string) Filter { return Filter{Param: param, Expr: expr, kind: filterText} }

func boolean(param, expr string) Filter { return Filter{Param: param, Expr: expr, kind: filterBool} }

func defaultResources() []*Resource {
	return []*Resource{
		{
			Name:  "users",
			Label: "Users",
			From:  "users u",
			Columns: []Column{
				{"id", "u.id"},
				{"email", "u.email"},
				{"username", "u.username"},
				{"first_name", "u.first_name"},
				{"last_name", "u.last_name"},
				{"role", "u.role"},
				{"is_active", "u.is_active"},
			},
			Search:  []string{"u.email", "u.username", "u.first_name", "u.last_name"},
			Filters: []Filter{text("role", "u.role"), boolean("is_active", "u.is_active")},
			OrderBy: "u.created_at DESC",
		},
		{
			Name:  "patient_profiles",
			Label: "Patient profiles",
			From:  "patient_profiles p",
			Joins: []string{"JOIN users u ON u.id = p.user_id"},
			Columns: []Column{
				{"user_id", "p.user_id"},
				{"user_email", "u.email"},
				{"user_full_name", fullName},
				{"date_of_birth", "p.date_of_birth"},
				{"blood_group", "p.blood_group"},
			},
			Search:  []string{"u.email", "u.first_name", "u.last_name", "p.blood_group"},
			Filters: []Filter{text("blood_group", "p.blood_group")},
			OrderBy: "p.created_at DESC",
		},
		{
			Name:  "doctor_profiles",
			Label: "Doctor profiles",
			From:  "doctor_profiles d",
			Joins: []string{"JOIN users u ON u.id = d.user_id"},
			Columns: []Column{
				{"user_id", "d.user_id"},
				{"user_email", "u.email"},
				{"user_full_name", fullName},
				{"specialization", "d.specialization"},
				{"medical_license_number", "d.medical_license_number"},
				{"is_verified", "d.is_verified"},
			},
			Search: []string{"u.email", "u.first_name", "u.last_name", "d.specialization", "d.medical_license_number"},
			Filters: []Filter{
				text("specialization", "d.specialization"),
				boolean("is_verified", "d.is_verified"),
			},
			OrderBy: "d.created_at DESC",
		},
		{
			Name:  "connections",
			Label: "Patient-doctor connections",
			From:  "connections c",
			Joins: []string{joinPatient, joinDoctor},
			Columns: []Column{
				{"id", "c.id"},
				{"patient_email", "pu.email"},
				{"doctor_email", "du.email"},
				{"status", "c.status"},
				{"requested_at", "c.requested_at"},
				{"responded_at", "c.responded_at"},
			},
			Search:  []string{"pu.email", "du.email", "pu.first_name", "du.first_name"},
			Filters: []Filter{text("status", "c.status")},
			OrderBy: "c.requested_at DESC",
		},
		{
			Name:  "diagnoses",
			Label: "Diagnoses",
			From:  "diagnoses dg",
			Joins: []string{
				"JOIN connections c ON c.id = dg.connection_id",
				joinPatient, joinDoctor,
				"JOIN doctor_profiles dp ON dp.user_id = c.doctor_id",
			},
			Columns: []Column{
				{"id", "dg.id"},
				{"patient_email", "pu.email"},
				{"doctor_email", "du.email"},
				{"recorded_at", "dg.recorded_at"},
				{"follow_up_date", "dg.follow_up_date"},
			},
			Search:  []string{"pu.email", "du.email", "dg.diagnosis_details"},
			Filters: []Filter{text("doctor_specialization", "dp.specialization")},
			OrderBy: "dg.recorded_at DESC",
		},
		{
			Name:  "prescriptions",
			Label: "Prescriptions",
			From:  "prescriptions rx",
			Joins: []string{
				"JOIN diagnoses dg ON dg.id = rx.diagnosis_id",
				"JOIN connections c ON c.id = dg.connection_id",
				joinPatient, joinDoctor,
			},
			Columns: []Column{
				{"id", "rx.id"},
				{"diagnosis_id", "rx.diagnosis_id"},
				{"patient_email", "pu.email"},
				{"doctor_email", "du.email"},
				{"prescribed_at", "rx.prescribed_at"},
				{"is_active", "rx.is_active"},
			},
			Search:  []string{"pu.email", "du.email", "dg.diagnosis_details"},
			Filters: []Filter{boolean("is_active", "rx.is_active")},
			OrderBy: "rx.prescribed_at DESC",
		},
		{
			Name:  "prescription_items",
			Label: "Prescription items",
			From:  "prescription_items i",
			Joins: []string{
				"JOIN medications m ON m.id = i.medication_id",
				"JOIN prescriptions rx ON rx.id = i.prescription_id",
				"JOIN diagnoses dg ON dg.id = rx.diagnosis_id",
				"JOIN connections c ON c.id = dg.connection_id",
				joinPatient,
			},
			Columns: []Column{
				{"id", "i.id"},
				{"prescription_id", "i.prescription_id"},
				{"medication_name", "m.name"},
				{"dosage", "i.dosage"},
				{"frequency", "i.frequency"},
				{"start_date", "i.start_date"},
				{"end_date", "i.end_date"},
			},
			Search:  []string{"pu.email", "m.name"},
			Filters: []Filter{text("medication_category", "m.category")},
			OrderBy: "i.start_date DESC",
		},
		{
			Name:  "medications",
			Label: "Medications",
			From:  "medications m",
			Columns: []Column{
				{"id", "m.id"},
				{"name", "m.name"},
				{"generic_name", "m.generic_name"},
				{"category", "m.category"},
				{"manufacturer", "m.manufacturer"},
			},
			Search:  []string{"m.name", "m.generic_name", "m.category", "m.manufacturer"},
			Filters: []Filter{text("category", "m.category"), text("manufacturer", "m.manufacturer")},
			OrderBy: "m.name ASC",
		},
		{
			Name:  "notifications",
			Label: "Notifications",
			From:  "notifications n",
			Joins: []string{"JOIN users u ON u.id = n.user_id"},
			Columns: []Column{
				{"id", "n.id"},
				{"user_email", "u.email"},
				{"message", "n.message"},
				{"notification_type", "n.notification_type"},
				{"notification_time", "n.notification_time"},
				{"is_read", "n.is_read"},
				{"created_at", "n.created_at"},
			},
			Search: []string{"u.email", "n.message"},
			Filters: []Filter{
				text("notification_type", "n.notification_type"),
				boolean("is_read", "n.is_read"),
			},
			OrderBy: "n.created_at DESC",
		},
	}
}
