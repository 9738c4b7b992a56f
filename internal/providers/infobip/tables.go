package infobip

import "github.com/ajayykmr/sms-dispatch-go/internal/models"

type statusGroup struct {
	name        string
	description string
	status      models.DeliveryStatus
}

// statusGroups maps an Infobip status groupId to its canonical status.
var statusGroups = map[int]statusGroup{
	0: {name: "ACCEPTED", description: "Message is accepted.", status: models.DeliveryStatusSent},
	1: {name: "PENDING", description: "Message is in pending status.", status: models.DeliveryStatusPending},
	2: {name: "UNDELIVERABLE", description: "Message is undeliverable.", status: models.DeliveryStatusNotDelivered},
	3: {name: "DELIVERED", description: "Message is delivered.", status: models.DeliveryStatusDelivered},
	4: {name: "EXPIRED", description: "Message is expired.", status: models.DeliveryStatusExpired},
	5: {name: "REJECTED", description: "Message is rejected.", status: models.DeliveryStatusRejected},
}

type statusDetail struct {
	id          int
	name        string
	description string
	group       int
	override    models.DeliveryStatus
}

var statusDetailList = []statusDetail{
	{id: 0, name: "MESSAGE_ACCEPTED", description: "Message accepted", group: 0},
	{id: 1, name: "PENDING_TIME_VIOLATION", description: "Time window violation", group: 1},
	{id: 3, name: "PENDING_WAITING_DELIVERY", description: "Message sent, waiting for delivery report", group: 1},
	{id: 7, name: "PENDING_ENROUTE", description: "Message sent to next instance", group: 1},
	{id: 26, name: "PENDING_ACCEPTED", description: "Pending Accepted", group: 1},
	{id: 27, name: "PENDING_APPROVAL", description: "Pending Approval", group: 1},
	{id: 4, name: "UNDELIVERABLE_REJECTED_OPERATOR", description: "Message rejected by operator", group: 2},
	{id: 9, name: "UNDELIVERABLE_NOT_DELIVERED", description: "Message sent not delivered", group: 2},
	{id: 31, name: "UNDELIVERABLE_NOT_SENT", description: "Message not sent", group: 2},
	{id: 5, name: "DELIVERED_TO_HANDSET", description: "Message delivered to handset", group: 3},
	{id: 2, name: "DELIVERED_TO_OPERATOR", description: "Message delivered to operator", group: 3},
	{id: 30, name: "DELIVERED", description: "MO forwarded action completed", group: 3},
	{id: 15, name: "EXPIRED_EXPIRED", description: "Message expired", group: 4},
	{id: 22, name: "EXPIRED_UNKNOWN", description: "Unknown Reason", group: 4},
	{id: 29, name: "EXPIRED_DLR_UNKNOWN", description: "Expired DLR Unknown", group: 4},
	{id: 6, name: "REJECTED_NETWORK", description: "Network is forbidden", group: 5},
	{id: 8, name: "REJECTED_PREFIX_MISSING", description: "Number prefix missing", group: 5},
	{id: 10, name: "REJECTED_DND", description: "Destination on DND list", group: 5},
	{id: 11, name: "REJECTED_SOURCE", description: "Invalid Source address", group: 5, override: models.DeliveryStatusInvalidSender},
	{id: 12, name: "REJECTED_NOT_ENOUGH_CREDITS", description: "Not enough credits", group: 5},
	{id: 13, name: "REJECTED_SENDER", description: "By Sender", group: 5},
	{id: 14, name: "REJECTED_DESTINATION", description: "By Destination", group: 5},
	{id: 16, name: "REJECTED_NOT_REACHABLE", description: "Network not reachable", group: 5},
	{id: 17, name: "REJECTED_PREPAID_PACKAGE_EXPIRED", description: "Prepaid package expired", group: 5},
	{id: 18, name: "REJECTED_DESTINATION_NOT_REGISTERED", description: "Destination not registered", group: 5},
	{id: 19, name: "REJECTED_ROUTE_NOT_AVAILABLE", description: "Route not available", group: 5},
	{id: 20, name: "REJECTED_FLOODING_FILTER", description: "Rejected flooding", group: 5},
	{id: 21, name: "REJECTED_SYSTEM_ERROR", description: "System error", group: 5},
	{id: 23, name: "REJECTED_DUPLICATE_MESSAGE_ID", description: "Rejected duplicate message ID", group: 5},
	{id: 24, name: "REJECTED_INVALID_UDH", description: "Rejected invalid UDH", group: 5},
	{id: 25, name: "REJECTED_MESSAGE_TOO_LONG", description: "Rejected message too long", group: 5},
	{id: 28, name: "REJECTED_NOT_SENT", description: "Rejected Not Sent", group: 5},
	{id: 51, name: "MISSING_TO", description: "Missing destination", group: 5, override: models.DeliveryStatusInvalidRecipient},
	{id: 52, name: "REJECTED_DESTINATION", description: "Invalid destination address", group: 5, override: models.DeliveryStatusInvalidRecipient},
}

type errorGroup struct {
	name        string
	description string
	code        models.ErrorCode
}

// errorGroups maps an Infobip error groupId to its canonical error code.
var errorGroups = map[int]errorGroup{
	0: {name: "OK", description: "No error.", code: models.ErrorCodeOK},
	1: {name: "HANDSET_ERRORS", description: "Handset error occurred.", code: models.ErrorCodeOther},
	2: {name: "USER_ERRORS", description: "User error occurred.", code: models.ErrorCodeOther},
	3: {name: "OPERATOR_ERRORS", description: "Operator error occurred.", code: models.ErrorCodeOther},
}

type errorDetail struct {
	id          int
	name        string
	description string
	permanent   bool
	group       int
	code        models.ErrorCode
}

var errorDetailList = []errorDetail{
	{id: 0, name: "NO_ERROR", description: "No Error", permanent: false, group: 0},
	{id: 5000, name: "VOICE_ANSWERED", description: "Call answered by human", permanent: true, group: 0},
	{id: 5001, name: "VOICE_ANSWERED_MACHINE", description: "Call answered by machine", permanent: true, group: 0},
	{id: 1, name: "EC_UNKNOWN_SUBSCRIBER", description: "Unknown Subscriber", permanent: true, group: 1, code: models.ErrorCodeDestNumber},
	{id: 5, name: "EC_UNIDENTIFIED_SUBSCRIBER", description: "Unidentified Subscriber", permanent: false, group: 1},
	{id: 6, name: "EC_ABSENT_SUBSCRIBER_SM", description: "Absent Subscriber", permanent: false, group: 1},
	{id: 9, name: "EC_ILLEGAL_SUBSCRIBER", description: "Illegal Subscriber", permanent: true, group: 1, code: models.ErrorCodeDestNumber},
	{id: 11, name: "EC_TELESERVICE_NOT_PROVISIONED", description: "Teleservice Not Provisioned", permanent: true, group: 1},
	{id: 12, name: "EC_ILLEGAL_EQUIPMENT", description: "Illegal Equipment", permanent: true, group: 1},
	{id: 13, name: "EC_CALL_BARRED", description: "Call Barred", permanent: false, group: 1},
	{id: 21, name: "EC_FACILITY_NOT_SUPPORTED", description: "Facility Not Supported", permanent: false, group: 1},
	{id: 27, name: "EC_ABSENT_SUBSCRIBER", description: "Absent Subscriber", permanent: false, group: 1},
	{id: 31, name: "EC_SUBSCRIBER_BUSY_FOR_MT_SMS", description: "Subscriber Busy For Mt SMS", permanent: false, group: 1},
	{id: 32, name: "EC_SM_DELIVERY_FAILURE", description: "SM Delivery Failure", permanent: false, group: 1},
	{id: 33, name: "EC_MESSAGE_WAITING_LIST_FULL", description: "Message Waiting List Full", permanent: false, group: 1},
	{id: 34, name: "EC_SYSTEM_FAILURE", description: "System Failure", permanent: false, group: 1},
	{id: 35, name: "EC_DATA_MISSING", description: "Data Missing", permanent: false, group: 1},
	{id: 36, name: "EC_UNEXPECTED_DATA_VALUE", description: "Unexpected Data Value", permanent: false, group: 1},
	{id: 72, name: "EC_USSD_BUSY", description: "Ussd Busy", permanent: true, group: 1},
	{id: 255, name: "EC_UNKNOWN_ERROR", description: "Unknown Error", permanent: false, group: 1},
	{id: 256, name: "EC_SM_DF_MEMORYCAPACITYEXCEEDED", description: "SM DF Memory Capacity Exceeded", permanent: false, group: 1},
	{id: 257, name: "EC_SM_DF_EQUIPMENTPROTOCOLERROR", description: "SM DF Equipment Protocol Error", permanent: false, group: 1},
	{id: 258, name: "EC_SM_DF_EQUIPMENTNOTSM_EQUIPPED", description: "SM DF Equipment Not SM Equipped", permanent: false, group: 1},
	{id: 259, name: "EC_SM_DF_UNKNOWNSERVICECENTRE", description: "SM DF Unknown Service Centre", permanent: false, group: 1},
	{id: 260, name: "EC_SM_DF_SC_CONGESTION", description: "SM DF Sc Congestion", permanent: false, group: 1},
	{id: 261, name: "EC_SM_DF_INVALIDSME_ADDRESS", description: "SM DF InvalidSME Address", permanent: false, group: 1},
	{id: 262, name: "EC_SM_DF_SUBSCRIBERNOTSC_SUBSCRIBER", description: "SM DF Subscribernotsc Subscriber", permanent: false, group: 1},
	{id: 500, name: "EC_PROVIDER_GENERAL_ERROR", description: "Provider General Error", permanent: false, group: 1},
	{id: 502, name: "EC_NO_RESPONSE", description: "No Response", permanent: false, group: 1},
	{id: 503, name: "EC_SERVICE_COMPLETION_FAILURE", description: "Service Completion Failure", permanent: false, group: 1},
	{id: 504, name: "EC_UNEXPECTED_RESPONSE_FROM_PEER", description: "Unexpected Response From Peer", permanent: false, group: 1},
	{id: 507, name: "EC_MISTYPED_PARAMETER", description: "Mistyped Parameter", permanent: false, group: 1},
	{id: 508, name: "EC_NOT_SUPPORTED_SERVICE", description: "Supported Service", permanent: false, group: 1},
	{id: 509, name: "EC_DUPLICATED_INVOKE_ID", description: "Duplicated Invoke Id", permanent: false, group: 1},
	{id: 511, name: "EC_INITIATING_RELEASE", description: "Initiating Release", permanent: true, group: 1},
	{id: 1024, name: "EC_OR_APPCONTEXTNOTSUPPORTED", description: "App Context Not Supported", permanent: false, group: 1},
	{id: 1025, name: "EC_OR_INVALIDDESTINATIONREFERENCE", description: "Invalid Destination Reference", permanent: false, group: 1},
	{id: 1026, name: "EC_OR_INVALIDORIGINATINGREFERENCE", description: "Invalid Originating Reference", permanent: false, group: 1},
	{id: 1027, name: "EC_OR_ENCAPSULATEDAC_NOTSUPPORTED", description: "Encapsulated AC Not Supported", permanent: false, group: 1},
	{id: 1028, name: "EC_OR_TRANSPORTPROTECTIONNOTADEQUATE", description: "Transport Protection Not Adequate", permanent: false, group: 1},
	{id: 1029, name: "EC_OR_NOREASONGIVEN", description: "No Reason Given", permanent: false, group: 1},
	{id: 1030, name: "EC_OR_POTENTIALVERSIONINCOMPATIBILITY", description: "Potential Version Incompatibility", permanent: false, group: 1},
	{id: 1031, name: "EC_OR_REMOTENODENOTREACHABLE", description: "Remote Node Not Reachable", permanent: false, group: 1},
	{id: 1152, name: "EC_NNR_NOTRANSLATIONFORANADDRESSOFSUCHNATURE", description: "No Translation For An Address Of Such Nature", permanent: false, group: 1},
	{id: 1153, name: "EC_NNR_NOTRANSLATIONFORTHISSPECIFICADDRESS", description: "No Translation For This Specific Address", permanent: false, group: 1},
	{id: 1154, name: "EC_NNR_SUBSYSTEMCONGESTION", description: "Subsystem Congestion", permanent: false, group: 1},
	{id: 1155, name: "EC_NNR_SUBSYSTEMFAILURE", description: "Subsystem Failure", permanent: false, group: 1},
	{id: 1156, name: "EC_NNR_UNEQUIPPEDUSER", description: "Unequipped User", permanent: false, group: 1},
	{id: 1157, name: "EC_NNR_MTPFAILURE", description: "MTP Failure", permanent: false, group: 1},
	{id: 1158, name: "EC_NNR_NETWORKCONGESTION", description: "Network Congestion", permanent: false, group: 1},
	{id: 1159, name: "EC_NNR_UNQUALIFIED", description: "Unqualified", permanent: false, group: 1},
	{id: 1160, name: "EC_NNR_ERRORINMESSAGETRANSPORTXUDT", description: "Error In Message Transport XUDT", permanent: false, group: 1},
	{id: 1161, name: "EC_NNR_ERRORINLOCALPROCESSINGXUDT", description: "Error In Local Processing XUDT", permanent: false, group: 1},
	{id: 1162, name: "EC_NNR_DESTINATIONCANNOTPERFORMREASSEMBLYXUDT", description: "Destination Cannot Perform Reassembly XUDT", permanent: false, group: 1},
	{id: 1163, name: "EC_NNR_SCCPFAILURE", description: "SCCP Failure", permanent: false, group: 1},
	{id: 1164, name: "EC_NNR_HOPCOUNTERVIOLATION", description: "Hop Counter Violation", permanent: false, group: 1},
	{id: 1165, name: "EC_NNR_SEGMENTATIONNOTSUPPORTED", description: "Segmentation Not Supported", permanent: false, group: 1},
	{id: 1166, name: "EC_NNR_SEGMENTATIONFAILURE", description: "Segmentation Failure", permanent: false, group: 1},
	{id: 1281, name: "EC_UA_USERSPECIFICREASON", description: "User Specific Reason", permanent: false, group: 1},
	{id: 1282, name: "EC_UA_USERRESOURCELIMITATION", description: "User Resource Limitation", permanent: false, group: 1},
	{id: 1283, name: "EC_UA_RESOURCEUNAVAILABLE", description: "Resource Unavailable", permanent: false, group: 1},
	{id: 1284, name: "EC_UA_APPLICATIONPROCEDURECANCELLATION", description: "Application Procedure Cancellation", permanent: false, group: 1},
	{id: 1536, name: "EC_PA_PROVIDERMALFUNCTION", description: "Provider Malfunction", permanent: false, group: 1},
	{id: 1537, name: "EC_PA_SUPPORTINGDIALOGORTRANSACTIONREALEASED", description: "Supporting Dialog Or Transaction Realeased", permanent: false, group: 1},
	{id: 1538, name: "EC_PA_RESSOURCELIMITATION", description: "Ressource Limitation", permanent: false, group: 1},
	{id: 1539, name: "EC_PA_MAINTENANCEACTIVITY", description: "Maintenance Activity", permanent: false, group: 1},
	{id: 1540, name: "EC_PA_VERSIONINCOMPATIBILITY", description: "Version Incompatibility", permanent: false, group: 1},
	{id: 1541, name: "EC_PA_ABNORMALMAPDIALOG", description: "Abnormal Map Dialog", permanent: false, group: 1},
	{id: 1792, name: "EC_NC_ABNORMALEVENTDETECTEDBYPEER", description: "Abnormal Event Detected By Peer", permanent: false, group: 1},
	{id: 1793, name: "EC_NC_RESPONSEREJECTEDBYPEER", description: "Response Rejected By Peer", permanent: false, group: 1},
	{id: 1794, name: "EC_NC_ABNORMALEVENTRECEIVEDFROMPEER", description: "Abnormal Event Received From Peer", permanent: false, group: 1},
	{id: 1795, name: "EC_NC_MESSAGECANNOTBEDELIVEREDTOPEER", description: "Message Cannot Be Delivered To Peer", permanent: false, group: 1},
	{id: 1796, name: "EC_NC_PROVIDEROUTOFINVOKE", description: "Provider Out Of Invoke", permanent: false, group: 1},
	{id: 2049, name: "EC_IMSI_BLACKLISTED", description: "IMSI blacklisted", permanent: true, group: 2, code: models.ErrorCodeDestNumber},
	{id: 4096, name: "EC_INVALID_PDU_FORMAT", description: "Invalid PDU Format", permanent: true, group: 2, code: models.ErrorCodeMsgOther},
	{id: 4100, name: "EC_MESSAGE_CANCELED", description: "Message canceled", permanent: true, group: 2},
	{id: 4101, name: "EC_VALIDITYEXPIRED", description: "Validity Expired", permanent: true, group: 2},
	{id: 5002, name: "EC_VOICE_USER_BUSY", description: "User was busy during call attempt", permanent: true, group: 2},
	{id: 5003, name: "EC_VOICE_NO_ANSWER", description: "User was notified, but did not answer call", permanent: true, group: 2},
	{id: 5004, name: "EC_VOICE_ERROR_DOWNLOADING_FILE", description: "File provided for call could not be downloaded", permanent: true, group: 2},
	{id: 5005, name: "EC_VOICE_ERROR_UNSUPPORTED_AUDIO_FORMAT", description: "Format of file provided for call is not supported", permanent: true, group: 2},
	{id: 10, name: "EC_BEARER_SERVICE_NOT_PROVISIONED", description: "Bearer Service Not Provisioned", permanent: true, group: 3},
	{id: 20, name: "EC_SS_INCOMPATIBILITY", description: "SS Incompatibility", permanent: false, group: 3},
	{id: 501, name: "EC_INVALID_RESPONSE_RECEIVED", description: "Invalid Response Received", permanent: false, group: 3},
	{id: 2050, name: "EC_DEST_ADDRESS_BLACKLISTED", description: "DND blacklisted", permanent: true, group: 3, code: models.ErrorCodeDestNumber},
	{id: 2051, name: "EC_INVALIDMSCADDRESS", description: "Text blacklisted", permanent: false, group: 3},
	{id: 51, name: "EC_RESOURCE_LIMITATION", description: "Resource Limitation", permanent: true, group: 3},
	{id: 71, name: "EC_UNKNOWN_ALPHABET", description: "Unknown Alphabet", permanent: false, group: 3},
	{id: 4097, name: "EC_NOTSUBMITTEDTOGMSC", description: "Not Submitted To GMSC", permanent: false, group: 3},
	{id: 2048, name: "EC_TIME_OUT", description: "Time Out", permanent: false, group: 3, code: models.ErrorCodeMsgRouting},
	{id: 4102, name: "EC_NOTSUBMITTEDTOSMPPCHANNEL", description: "Not Submitted To Smpp Channel", permanent: true, group: 3},
}

var (
	statusDetails = indexStatusDetails(statusDetailList)
	errorDetails  = indexErrorDetails(errorDetailList)
)

func indexStatusDetails(list []statusDetail) map[int]statusDetail {
	out := make(map[int]statusDetail, len(list))
	for _, d := range list {
		out[d.id] = d
	}
	return out
}

func indexErrorDetails(list []errorDetail) map[int]errorDetail {
	out := make(map[int]errorDetail, len(list))
	for _, d := range list {
		out[d.id] = d
	}
	return out
}

// canonicalStatus resolves the canonical status of an Infobip status.
// A per-id override wins over the group mapping; unknown groups map to
// DeliveryStatusUnknown.
func canonicalStatus(id, groupID int) models.DeliveryStatus {
	if d, ok := statusDetails[id]; ok && d.override != "" {
		return d.override
	}
	if g, ok := statusGroups[groupID]; ok {
		return g.status
	}
	return models.DeliveryStatusUnknown
}

type resolvedError struct {
	code        models.ErrorCode
	description string
	permanent   bool
}

// canonicalError resolves an Infobip error id. Unknown ids fall back to the
// group classification and unknown groups map to ErrorCodeUnknown.
func canonicalError(id, groupID int, permanent bool) resolvedError {
	if d, ok := errorDetails[id]; ok {
		code := d.code
		if code == "" {
			code = errorGroups[d.group].code
		}
		return resolvedError{code: code, description: d.description, permanent: d.permanent}
	}
	if g, ok := errorGroups[groupID]; ok {
		return resolvedError{code: g.code, description: g.description, permanent: permanent}
	}
	return resolvedError{code: models.ErrorCodeUnknown, permanent: permanent}
}
