package fbs

// DOM selectors for the booking site. The markup is a fixed ASP.NET
// frameset, these do not vary per deployment.
const (
	selUsername = "input#userNameInput"
	selPassword = "input#passwordInput"
	selSubmit   = "span#submitButton"

	frameBottom  = "frameBottom"
	frameContent = "frameContent"

	selDateInput = "input#DateBookingFrom_c1_textDate"
	selNextDay   = "a#BtnDpcNext.btn"

	selStartTime = "select#TimeFrom_c1_ctl04"
	selEndTime   = "select#TimeTo_c1_ctl04"
	selCapacity  = "select#DropCapacity_c1"

	selBuildingDropdown  = "#DropMultiBuildingList_c1_textItem"
	selFloorDropdown     = "#DropMultiFloorList_c1_textItem"
	selFacilityDropdown  = "#DropMultiFacilityTypeList_c1_textItem"
	selEquipmentDropdown = "#DropMultiEquipmentList_c1_textItem"

	selResultsTable      = "table#GridResults_gv"
	selCheckAvailability = "a#CheckAvailability"

	selRoomHeaders   = "div.scheduler_bluewhite_rowheader_inner"
	selBookingEvents = "div.scheduler_bluewhite_event.scheduler_bluewhite_event_line0"

	// the dropdowns are custom widgets, closing them is a JS call rather
	// than a click on any element
	hidePopupScript = "popup.hide()"
)

// setSelectScript writes a value into one of the native single-value
// selects. The site wires change handlers to postbacks, assigning the value
// directly avoids re-rendering the frame mid-interaction.
const setSelectScript = `document.querySelector(%q).value = %q`
